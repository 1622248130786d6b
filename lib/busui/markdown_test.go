// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func renderPlain(t *testing.T, input string, width int) string {
	t.Helper()
	return ansi.Strip(RenderMarkdown(input, DefaultTheme, width))
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if out := RenderMarkdown("", DefaultTheme, 80); out != "" {
		t.Fatalf("empty input should render empty, got %q", out)
	}
}

func TestRenderMarkdownReflowsSoftBreaks(t *testing.T) {
	// Hard-wrapped source reflows: the single newline becomes a space.
	out := renderPlain(t, "alpha\nbeta", 80)
	if !strings.Contains(out, "alpha beta") {
		t.Fatalf("soft break should become a space, got %q", out)
	}
}

func TestRenderMarkdownWrapsToWidth(t *testing.T) {
	input := "the quick brown fox jumps over the lazy dog again and again and again"
	out := renderPlain(t, input, 24)
	for _, line := range strings.Split(out, "\n") {
		if len([]rune(line)) > 24 {
			t.Fatalf("line exceeds width 24: %q", line)
		}
	}
	if !strings.Contains(out, "\n") {
		t.Fatal("expected wrapped output to span multiple lines")
	}
}

func TestRenderMarkdownHeading(t *testing.T) {
	out := renderPlain(t, "# Rollback plan\n\nbody text", 80)
	if !strings.Contains(out, "Rollback plan") {
		t.Fatalf("missing heading text in %q", out)
	}
	if !strings.Contains(out, "body text") {
		t.Fatalf("missing paragraph text in %q", out)
	}
}

func TestRenderMarkdownFencedCode(t *testing.T) {
	input := "before\n\n```go\nfmt.Println(\"hi\")\n```\n\nafter"
	out := renderPlain(t, input, 80)
	if !strings.Contains(out, `fmt.Println("hi")`) {
		t.Fatalf("missing code content in %q", out)
	}
}

func TestRenderMarkdownCodeNotWrapped(t *testing.T) {
	code := "x := someVeryLongFunctionCall(argument1, argument2, argument3)"
	out := renderPlain(t, "```\n"+code+"\n```", 20)
	if !strings.Contains(out, code) {
		t.Fatalf("code must not be word-wrapped, got %q", out)
	}
}

func TestRenderMarkdownList(t *testing.T) {
	out := renderPlain(t, "- first step\n- second step", 80)
	if !strings.Contains(out, "- first step") || !strings.Contains(out, "- second step") {
		t.Fatalf("missing list bullets in %q", out)
	}
}

func TestRenderMarkdownOrderedList(t *testing.T) {
	out := renderPlain(t, "1. stop service\n2. run migration", 80)
	if !strings.Contains(out, "1. stop service") || !strings.Contains(out, "2. run migration") {
		t.Fatalf("missing ordered bullets in %q", out)
	}
}

func TestRenderMarkdownBlockquote(t *testing.T) {
	out := renderPlain(t, "> quoted warning", 80)
	if !strings.Contains(out, "│ quoted warning") {
		t.Fatalf("missing blockquote bar in %q", out)
	}
}

func TestRenderMarkdownLink(t *testing.T) {
	out := renderPlain(t, "see [runbook](https://example.com/rb)", 80)
	if !strings.Contains(out, "runbook") || !strings.Contains(out, "(https://example.com/rb)") {
		t.Fatalf("link text and URL should both render, got %q", out)
	}
}

func TestRenderMarkdownEmphasisStyled(t *testing.T) {
	// Bold text carries an ANSI style; the styled output differs from
	// the stripped text.
	styled := RenderMarkdown("**danger**", DefaultTheme, 80)
	if ansi.Strip(styled) == styled {
		t.Fatal("expected ANSI styling in bold output")
	}
	if !strings.Contains(ansi.Strip(styled), "danger") {
		t.Fatalf("missing bold text in %q", styled)
	}
}

func TestRenderMarkdownNoTrailingNewline(t *testing.T) {
	out := RenderMarkdown("one paragraph", DefaultTheme, 80)
	if strings.HasSuffix(out, "\n") {
		t.Fatal("rendered output must not end with a newline")
	}
}
