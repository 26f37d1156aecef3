package tui

import (
	"strings"
	"testing"

	"loon-cli/internal/model"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestRenderMarkdownWrapsAndCaches(t *testing.T) {
	md := "# Monads\n\nA monad is just a **monoid** in the category of endofunctors, what's the problem?"

	out := renderMarkdown(md, 30, model.ThemeDark)
	plain := xansi.Strip(out)
	if !strings.Contains(plain, "Monads") || !strings.Contains(plain, "monoid") {
		t.Fatalf("rendered text lost content:\n%s", plain)
	}
	if n := len(strings.Split(out, "\n")); n < 3 {
		t.Fatalf("expected the paragraph to wrap, got %d lines:\n%s", n, plain)
	}

	_ = renderMarkdown(md, 30, model.ThemeLight)
	mdRendererMu.Lock()
	_, dark := mdRenderers["dark:30"]
	_, light := mdRenderers["light:30"]
	mdRendererMu.Unlock()
	if !dark || !light {
		t.Fatalf("expected one cached renderer per theme")
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if got := renderMarkdown("  \n", 40, model.ThemeDark); got != "" {
		t.Fatalf("got %q", got)
	}
}
