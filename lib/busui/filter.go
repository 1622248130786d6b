// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"
)

// FilterModel narrows the intention list with fzf-style fuzzy matching
// across ID, content, state, and decision reason. The filter is
// client-side only; the source keeps delivering the full view.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true while the filter input has keyboard focus (the
	// user pressed / to start typing).
	Active bool
}

// Matches reports whether the intention matches the current filter.
// An empty filter matches everything. A query that spells out a state
// name ("pending", "committed", "aborted") selects by state alone —
// fuzzy matching would leak the query's letters into unrelated
// content ("pending" is a subsequence of "deploy frontend to
// staging"). Any other query fuzzy-matches across ID, content, state,
// and decision reason.
func (filter *FilterModel) Matches(intention IntentionView, slab *util.Slab) bool {
	if filter.Input == "" {
		return true
	}
	query := strings.ToLower(filter.Input)
	if isStateName(query) {
		return string(intention.State) == query
	}
	pattern := []rune(query)

	if FuzzyMatch(strconv.FormatUint(uint64(intention.ID), 10), pattern, slab).Matched {
		return true
	}
	if FuzzyMatch(intention.Content, pattern, slab).Matched {
		return true
	}
	if FuzzyMatch(string(intention.State), pattern, slab).Matched {
		return true
	}
	if intention.Reason != "" && FuzzyMatch(intention.Reason, pattern, slab).Matched {
		return true
	}
	return false
}

func isStateName(query string) bool {
	switch State(query) {
	case StatePending, StateCommitted, StateAborted:
		return true
	}
	return false
}

// Apply filters intentions, preserving their order.
func (filter *FilterModel) Apply(intentions []IntentionView, slab *util.Slab) []IntentionView {
	if filter.Input == "" {
		return intentions
	}
	var result []IntentionView
	for _, intention := range intentions {
		if filter.Matches(intention, slab) {
			result = append(result, intention)
		}
	}
	return result
}

// HandleRune appends a typed character to the filter input.
func (filter *FilterModel) HandleRune(character rune) {
	filter.Input += string(character)
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. Hidden when inactive with no text.
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	if filter.Active {
		style := lipgloss.NewStyle().
			Foreground(theme.NormalText).
			Width(width)
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	// Inactive but has text — show the filter as a subtle indicator.
	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
