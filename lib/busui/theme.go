// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import "github.com/charmbracelet/lipgloss"

// Theme defines the viewer's color palette. All colors are lipgloss
// ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Intention states.
	Pending   lipgloss.Color
	Committed lipgloss.Color
	Aborted   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// StateColor returns the color for an intention state. Unknown states
// render faint.
func (theme Theme) StateColor(state State) lipgloss.Color {
	switch state {
	case StatePending:
		return theme.Pending
	case StateCommitted:
		return theme.Committed
	case StateAborted:
		return theme.Aborted
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. The state
// colors follow traffic-light convention: amber while a decision is
// outstanding, green for committed, red for aborted.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Pending:   lipgloss.Color("220"),
	Committed: lipgloss.Color("114"),
	Aborted:   lipgloss.Color("196"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}
