// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the intention list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail pane.
	FocusDetail
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
)

// listPaneRatio is the fraction of the terminal width given to the
// intention list; the detail pane takes the rest.
const listPaneRatio = 0.40

// sourceChangedMsg signals that the source observed new log entries.
type sourceChangedMsg struct{}

// Model is the top-level bubbletea model for the bus viewer. It is a
// value type: Update returns the modified copy, per bubbletea
// convention.
type Model struct {
	source Source
	theme  Theme
	keys   KeyMap
	slab   *util.Slab

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Latest snapshot and the filtered view of it.
	snapshot Snapshot
	visible  []IntentionView

	// List state. selectedID keeps the cursor on the same intention
	// across refreshes and filter changes.
	cursor       int
	scrollOffset int
	selectedID   entry.Position

	// Detail pane scroll position, in lines.
	detailScroll int

	focus      FocusRegion
	priorFocus FocusRegion
	filter     FilterModel

	// Source event subscription; nil when the source has no live
	// updates.
	events <-chan struct{}
}

// NewModel creates a viewer model over the given source.
func NewModel(source Source) Model {
	model := Model{
		source: source,
		theme:  DefaultTheme,
		keys:   DefaultKeyMap,
		slab:   NewSlab(),
		events: source.Subscribe(),
	}
	model.refresh()
	return model
}

// Init implements tea.Model. Starts listening for source changes when
// the source supports live updates.
func (model Model) Init() tea.Cmd {
	if model.events == nil {
		return nil
	}
	return listenForChange(model.events)
}

// listenForChange blocks until the source signals a change, then
// delivers it into the bubbletea message loop.
func listenForChange(channel <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-channel; !ok {
			return nil
		}
		return sourceChangedMsg{}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.clampScroll()

	case sourceChangedMsg:
		model.refresh()
		return model, listenForChange(model.events)

	case tea.KeyMsg:
		if model.focus == FocusFilter {
			return model.handleFilterKeys(message)
		}
		return model.handleKeys(message)
	}
	return model, nil
}

func (model Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.FocusToggle):
		if model.focus == FocusList {
			model.focus = FocusDetail
		} else {
			model.focus = FocusList
		}

	case key.Matches(message, model.keys.FilterActivate):
		model.priorFocus = model.focus
		model.focus = FocusFilter
		model.filter.Active = true

	case key.Matches(message, model.keys.FilterClear):
		if model.filter.Input != "" {
			model.filter.Clear()
			model.applyFilter()
		}

	case key.Matches(message, model.keys.Up):
		model.move(-1)
	case key.Matches(message, model.keys.Down):
		model.move(1)
	case key.Matches(message, model.keys.PageUp):
		model.move(-model.listHeight() / 2)
	case key.Matches(message, model.keys.PageDown):
		model.move(model.listHeight() / 2)
	case key.Matches(message, model.keys.Home):
		model.move(-len(model.visible))
	case key.Matches(message, model.keys.End):
		model.move(len(model.visible))
	}
	return model, nil
}

// handleFilterKeys routes input while the filter has focus. Esc clears
// and deactivates; Enter confirms and returns focus to the prior pane.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.filter.Clear()
		model.focus = model.priorFocus
		model.applyFilter()

	case tea.KeyEnter:
		model.filter.Active = false
		model.focus = model.priorFocus

	case tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			model.applyFilter()
		}

	case tea.KeyCtrlC:
		return model, tea.Quit

	case tea.KeyRunes:
		for _, character := range message.Runes {
			model.filter.HandleRune(character)
		}
		model.applyFilter()

	case tea.KeySpace:
		model.filter.HandleRune(' ')
		model.applyFilter()
	}
	return model, nil
}

// move shifts the list cursor (list focus) or scrolls the detail pane
// (detail focus) by delta rows.
func (model *Model) move(delta int) {
	if model.focus == FocusDetail {
		model.detailScroll += delta
		if model.detailScroll < 0 {
			model.detailScroll = 0
		}
		return
	}

	model.cursor += delta
	if model.cursor < 0 {
		model.cursor = 0
	}
	if model.cursor >= len(model.visible) {
		model.cursor = len(model.visible) - 1
	}
	if model.cursor >= 0 && model.cursor < len(model.visible) {
		model.selectedID = model.visible[model.cursor].ID
	}
	model.detailScroll = 0
	model.clampScroll()
}

// refresh pulls a fresh snapshot and reapplies the filter, keeping the
// cursor on the selected intention when it survives the refresh.
func (model *Model) refresh() {
	model.snapshot = model.source.Snapshot()
	model.applyFilter()
}

func (model *Model) applyFilter() {
	model.visible = model.filter.Apply(model.snapshot.Intentions, model.slab)

	// Restore the cursor to the selected intention if it is still
	// visible; otherwise clamp.
	restored := false
	for index, intention := range model.visible {
		if intention.ID == model.selectedID {
			model.cursor = index
			restored = true
			break
		}
	}
	if !restored {
		if model.cursor >= len(model.visible) {
			model.cursor = len(model.visible) - 1
		}
		if model.cursor < 0 {
			model.cursor = 0
		}
		if model.cursor < len(model.visible) {
			model.selectedID = model.visible[model.cursor].ID
		}
	}
	model.clampScroll()
}

// clampScroll keeps the cursor row inside the visible list window.
func (model *Model) clampScroll() {
	height := model.listHeight()
	if height <= 0 {
		return
	}
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+height {
		model.scrollOffset = model.cursor - height + 1
	}
	if model.scrollOffset < 0 {
		model.scrollOffset = 0
	}
}

// Chrome rows: header, filter bar (when visible), status bar.
func (model Model) chromeHeight() int {
	chrome := 2
	if model.filter.Active || model.filter.Input != "" {
		chrome++
	}
	return chrome
}

func (model Model) listHeight() int {
	height := model.height - model.chromeHeight()
	if height < 1 {
		height = 1
	}
	return height
}

func (model Model) listWidth() int {
	width := int(float64(model.width) * listPaneRatio)
	if width < 20 {
		width = 20
	}
	return width
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading..."
	}

	var sections []string
	sections = append(sections, model.headerView())
	if filterBar := model.filter.View(model.theme, model.width); filterBar != "" {
		sections = append(sections, filterBar)
	}

	bodyHeight := model.listHeight()
	listPane := model.listView(model.listWidth(), bodyHeight)
	detailPane := model.detailView(model.width-model.listWidth()-1, bodyHeight)
	divider := model.dividerView(bodyHeight)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, listPane, divider, detailPane))

	sections = append(sections, model.statusView())
	return strings.Join(sections, "\n")
}

func (model Model) headerView() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true)
	countStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	title := headerStyle.Render("safetybus")
	counts := countStyle.Render(fmt.Sprintf(
		"  %d intentions · %d pending · %d committed · %d aborted · position %d",
		len(model.snapshot.Intentions),
		model.snapshot.Pending,
		model.snapshot.Committed,
		model.snapshot.Aborted,
		model.snapshot.LastPosition,
	))
	return ansi.Truncate(title+counts, model.width, "…")
}

func stateGlyph(state State) string {
	switch state {
	case StateCommitted:
		return "✓"
	case StateAborted:
		return "✗"
	default:
		return "◌"
	}
}

func (model Model) listView(width, height int) string {
	var rows []string
	normalStyle := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	selectedStyle := lipgloss.NewStyle().
		Foreground(model.theme.SelectedForeground).
		Background(model.theme.SelectedBackground).
		Bold(true)

	end := model.scrollOffset + height
	if end > len(model.visible) {
		end = len(model.visible)
	}
	for index := model.scrollOffset; index < end; index++ {
		intention := model.visible[index]
		glyph := lipgloss.NewStyle().
			Foreground(model.theme.StateColor(intention.State)).
			Render(stateGlyph(intention.State))

		// First content line only; the detail pane shows the rest.
		content := intention.Content
		if newline := strings.IndexByte(content, '\n'); newline >= 0 {
			content = content[:newline]
		}
		label := fmt.Sprintf("#%d %s", intention.ID, content)

		row := " " + glyph + " "
		if index == model.cursor {
			row += selectedStyle.Render(ansi.Truncate(label, width-4, "…"))
		} else {
			row += normalStyle.Render(ansi.Truncate(label, width-4, "…"))
		}
		rows = append(rows, ansi.Truncate(row, width, "…"))
	}

	if len(model.visible) == 0 {
		empty := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		message := "no intentions"
		if model.filter.Input != "" {
			message = "no matches"
		}
		rows = append(rows, empty.Render(" "+message))
	}

	for len(rows) < height {
		rows = append(rows, "")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(rows, "\n"))
}

func (model Model) dividerView(height int) string {
	bar := lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render("│")
	rows := make([]string, height)
	for index := range rows {
		rows[index] = bar
	}
	return strings.Join(rows, "\n")
}

// detailView renders everything known about the selected intention:
// state, decision reason, content as markdown, votes, and recorded
// output.
func (model Model) detailView(width, height int) string {
	if width < 10 {
		width = 10
	}
	if model.cursor < 0 || model.cursor >= len(model.visible) {
		return lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render(" select an intention")
	}
	intention := model.visible[model.cursor]

	titleStyle := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true)
	faintStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	stateStyle := lipgloss.NewStyle().
		Foreground(model.theme.StateColor(intention.State)).
		Bold(true)

	var body strings.Builder
	body.WriteString(titleStyle.Render(fmt.Sprintf("Intention #%d", intention.ID)))
	body.WriteString("  ")
	body.WriteString(stateStyle.Render(string(intention.State)))
	body.WriteString("\n")
	if intention.State != StatePending {
		body.WriteString(faintStyle.Render(fmt.Sprintf("decided at #%d", intention.DecidedAt)))
		if intention.Reason != "" {
			body.WriteString(faintStyle.Render(" — " + intention.Reason))
		}
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(RenderMarkdown(intention.Content, model.theme, width-1))
	body.WriteString("\n")

	if len(intention.Votes) > 0 {
		body.WriteString("\n")
		body.WriteString(titleStyle.Render("Votes"))
		body.WriteString("\n")
		for _, vote := range intention.Votes {
			body.WriteString(fmt.Sprintf("  %s: %s\n", vote.Voter, vote.Verdict))
		}
	}
	if intention.Output != "" {
		body.WriteString("\n")
		body.WriteString(titleStyle.Render("Output"))
		body.WriteString("\n")
		body.WriteString(faintStyle.Render(intention.Output))
		body.WriteString("\n")
	}

	// Scroll window over the rendered lines. The scroll position is
	// clamped locally so over-scrolling past the end is harmless.
	lines := strings.Split(strings.TrimRight(body.String(), "\n"), "\n")
	scroll := model.detailScroll
	if maximum := len(lines) - height; scroll > maximum {
		scroll = maximum
	}
	if scroll < 0 {
		scroll = 0
	}
	end := scroll + height
	if end > len(lines) {
		end = len(lines)
	}
	window := lines[scroll:end]

	clipped := make([]string, len(window))
	for index, line := range window {
		clipped[index] = ansi.Truncate(" "+line, width, "…")
	}
	return strings.Join(clipped, "\n")
}

func (model Model) statusView() string {
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	bindings := []key.Binding{
		model.keys.Up,
		model.keys.Down,
		model.keys.FocusToggle,
		model.keys.FilterActivate,
		model.keys.Quit,
	}
	var parts []string
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return helpStyle.Render(ansi.Truncate(" "+strings.Join(parts, "  ·  "), model.width, "…"))
}
