// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// The parser configuration never changes and a goldmark Parser is safe
// to share; Parse(reader) creates per-call state.
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParserInstance
}

// RenderMarkdown renders markdown as styled terminal text at the given
// width. Intention content is usually short prose, sometimes with a
// fenced command or code block; the renderer covers headings,
// paragraphs, emphasis, code, lists, blockquotes, and links. Soft line
// breaks become spaces so hard-wrapped source reflows at any width.
func RenderMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 profile: this output is always for a bubbletea
	// TUI, and auto-detection produces uncolored output under test
	// environments with no TTY. SetColorProfile is needed because
	// lipgloss re-detects from the environment otherwise.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST directly rather than going
// through goldmark's renderer interface: terminal rendering needs
// accumulate-then-wrap semantics, where a paragraph's inline content
// collects in a buffer and gets word-wrapped as a unit when the block
// closes.
type markdownRenderer struct {
	source []byte
	theme  Theme
	width  int

	output strings.Builder

	// Inline accumulator, flushed with word-wrap when the containing
	// block closes.
	inline strings.Builder

	// Indent is the continuation prefix for nested blocks (blockquote
	// bars, list item hanging indents).
	indent      string
	indentWidth int

	// Pending bullet replaces the indent for the next emitted line,
	// then clears. Carries list item bullets and numbers.
	pendingBullet string

	// Counters rather than booleans so nested emphasis unwinds
	// correctly.
	boldCount   int
	italicCount int
	strikeCount int

	listStack []listState

	lipRenderer *lipgloss.Renderer

	trailingNewlines int
}

type listState struct {
	ordered bool
	counter int
	tight   bool

	// itemIndent is the hanging-indent width pushed for the current
	// item, recorded so leaveListItem pops exactly what was pushed.
	itemIndent int
}

func (r *markdownRenderer) newStyle() lipgloss.Style {
	return r.lipRenderer.NewStyle()
}

// contentWidth is the wrap width after indentation, clamped so deep
// nesting never degenerates to zero-width wrapping.
func (r *markdownRenderer) contentWidth() int {
	width := r.width - r.indentWidth
	if width < 10 {
		width = 10
	}
	return width
}

func (r *markdownRenderer) pushIndent(prefix string, visibleWidth int) {
	r.indent += prefix
	r.indentWidth += visibleWidth
}

func (r *markdownRenderer) popIndent(prefix string, visibleWidth int) {
	r.indent = strings.TrimSuffix(r.indent, prefix)
	r.indentWidth -= visibleWidth
}

func (r *markdownRenderer) inTightList() bool {
	if len(r.listStack) == 0 {
		return false
	}
	return r.listStack[len(r.listStack)-1].tight
}

func (r *markdownRenderer) write(s string) {
	if s == "" {
		return
	}
	r.output.WriteString(s)
	trailing := 0
	allNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] != '\n' {
			allNewlines = false
			break
		}
		trailing++
	}
	if allNewlines {
		r.trailingNewlines += trailing
	} else {
		r.trailingNewlines = trailing
	}
}

func (r *markdownRenderer) ensureNewline() {
	if r.trailingNewlines < 1 {
		r.write("\n")
	}
}

func (r *markdownRenderer) ensureBlankLine() {
	for r.trailingNewlines < 2 {
		r.write("\n")
	}
}

// linePrefix returns the prefix for the next emitted line: the pending
// bullet if one is set (consumed), otherwise the indent.
func (r *markdownRenderer) linePrefix() string {
	if r.pendingBullet != "" {
		bullet := r.pendingBullet
		r.pendingBullet = ""
		return bullet
	}
	return r.indent
}

// indented prepends the line prefix to every line of content. The
// first line may consume a pending bullet.
func (r *markdownRenderer) indented(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 {
			result.WriteString(r.linePrefix())
		} else {
			result.WriteString(r.indent)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// flushInline word-wraps the accumulated inline content and applies
// indentation. Resets the inline buffer.
func (r *markdownRenderer) flushInline() string {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return ""
	}
	return r.indented(ansi.Wrap(content, r.contentWidth(), " ,.;-+|"))
}

func (r *markdownRenderer) styledText(content string) string {
	style := r.newStyle().Foreground(r.theme.NormalText)
	if r.boldCount > 0 {
		style = style.Bold(true)
	}
	if r.italicCount > 0 {
		style = style.Italic(true)
	}
	if r.strikeCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// inlineText collects a node's children into a string, saving and
// restoring the inline buffer and style counters around the walk.
func (r *markdownRenderer) inlineText(node ast.Node) string {
	savedInline := r.inline.String()
	savedBold, savedItalic, savedStrike := r.boldCount, r.italicCount, r.strikeCount

	r.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, r.walk)
	}
	result := r.inline.String()

	r.inline.Reset()
	r.inline.WriteString(savedInline)
	r.boldCount, r.italicCount, r.strikeCount = savedBold, savedItalic, savedStrike
	return result
}

// highlightCode syntax-highlights code via Chroma, falling back to
// faint plain text on unknown languages or highlighter errors.
func (r *markdownRenderer) highlightCode(code, language string) string {
	if language == "" {
		return r.newStyle().Foreground(r.theme.FaintText).Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return r.newStyle().Foreground(r.theme.FaintText).Render(code)
	}
	return buffer.String()
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
		} else if flushed := r.flushInline(); flushed != "" {
			r.write(flushed)
			r.ensureNewline()
			if !r.inTightList() {
				r.ensureBlankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
		} else {
			r.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			r.renderCodeLines(r.highlightCode(r.blockText(node), string(block.Language(r.source))))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			faint := r.newStyle().Foreground(r.theme.FaintText)
			r.renderCodeLines(faint.Render(r.blockText(node)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			r.pushIndent("│ ", 2)
		} else {
			r.popIndent("│ ", 2)
			r.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			start := 0
			if list.IsOrdered() {
				start = list.Start
			}
			r.listStack = append(r.listStack, listState{
				ordered: list.IsOrdered(),
				counter: start,
				tight:   list.IsTight,
			})
		} else {
			if len(r.listStack) > 0 {
				r.listStack = r.listStack[:len(r.listStack)-1]
			}
			if !r.inTightList() {
				r.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			r.enterListItem()
		} else {
			r.leaveListItem()
		}

	case ast.KindThematicBreak:
		if entering {
			rule := r.newStyle().Foreground(r.theme.BorderColor).
				Render(strings.Repeat("─", r.contentWidth()))
			r.ensureBlankLine()
			r.write(r.indented(rule))
			r.ensureNewline()
			r.ensureBlankLine()
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			r.inline.WriteString(r.styledText(string(textNode.Segment.Value(r.source))))
			if textNode.SoftLineBreak() {
				// Soft breaks become spaces so hard-wrapped source
				// reflows at the terminal width.
				r.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			r.boldCount += delta
		} else {
			r.italicCount += delta
		}

	case extast.KindStrikethrough:
		if entering {
			r.strikeCount++
		} else {
			r.strikeCount--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				switch inline := child.(type) {
				case *ast.Text:
					code.Write(inline.Segment.Value(r.source))
				case *ast.String:
					code.Write(inline.Value)
				}
			}
			r.inline.WriteString(r.newStyle().Foreground(r.theme.FaintText).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			r.inline.WriteString(r.inlineText(node))
			if url := string(link.Destination); url != "" {
				faint := r.newStyle().Foreground(r.theme.FaintText)
				r.inline.WriteString(" " + faint.Render("("+url+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(r.source))
			r.inline.WriteString(r.newStyle().Foreground(r.theme.FaintText).Render(url))
		}
	}

	return ast.WalkContinue, nil
}

func (r *markdownRenderer) leaveHeading(heading *ast.Heading) {
	// Strip inline styling: the heading's own style replaces the
	// default NormalText that styledText applied.
	content := ansi.Strip(r.inline.String())
	r.inline.Reset()
	if content == "" {
		return
	}

	style := r.newStyle().Bold(true)
	if heading.Level <= 2 {
		style = style.Foreground(r.theme.HeaderForeground)
	} else {
		style = style.Foreground(r.theme.NormalText)
	}

	wrapped := ansi.Wrap(style.Render(content), r.contentWidth(), " ,.;-+|")
	r.ensureBlankLine()
	r.write(r.indented(wrapped))
	r.ensureNewline()
	r.ensureBlankLine()
}

// blockText joins a block node's source line segments.
func (r *markdownRenderer) blockText(node ast.Node) string {
	var content strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		content.Write(segment.Value(r.source))
	}
	return content.String()
}

// renderCodeLines emits pre-styled code text line by line with the
// current indentation. Code is never wrapped.
func (r *markdownRenderer) renderCodeLines(styled string) {
	r.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(styled, "\n"), "\n") {
		r.write(r.linePrefix() + line)
		r.ensureNewline()
	}
	r.ensureBlankLine()
}

func (r *markdownRenderer) enterListItem() {
	if len(r.listStack) == 0 {
		return
	}
	top := &r.listStack[len(r.listStack)-1]

	var bullet string
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	} else {
		bullet = "- "
	}

	// The pending bullet includes the current indent so it replaces
	// the whole prefix for the item's first line; continuation lines
	// hang under the bullet.
	r.pendingBullet = r.indent + bullet
	top.itemIndent = len(bullet)
	r.pushIndent(strings.Repeat(" ", len(bullet)), len(bullet))
}

func (r *markdownRenderer) leaveListItem() {
	if len(r.listStack) == 0 {
		return
	}
	top := r.listStack[len(r.listStack)-1]
	r.popIndent(strings.Repeat(" ", top.itemIndent), top.itemIndent)
	if r.inTightList() {
		r.ensureNewline()
	} else {
		r.ensureBlankLine()
	}
}
