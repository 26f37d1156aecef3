package tui

import (
	"strconv"
	"strings"
	"sync"

	"loon-cli/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by theme and wrap width. WithAutoStyle is avoided
	// because its terminal background query can block.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders a model reply for the path view. On any renderer
// failure the raw text is returned.
func renderMarkdown(md string, width int, theme model.ThemeMode) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	key := string(theme) + ":" + strconv.Itoa(width)
	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(theme)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	// TermRenderer is not safe for concurrent Render calls.
	mdRendererMu.Lock()
	out, err := r.Render(md)
	mdRendererMu.Unlock()
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func markdownStyleConfig(theme model.ThemeMode) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if theme == model.ThemeLight {
		cfg = styles.LightStyleConfig
	}

	// Replies sit between other blocks; drop the outer margin.
	zero := uint(0)
	cfg.Document.Margin = &zero

	heading := mdColor(colorSurfaceFg, theme)
	cfg.Heading.Color = heading
	cfg.H1.Color = heading
	cfg.H2.Color = heading
	cfg.H3.Color = heading

	link := mdColor(colorAccent, theme)
	cfg.Link.Color = link
	cfg.Link.Underline = mdBoolPtr(true)
	cfg.LinkText.Color = link

	cfg.Text.Color = mdColor(colorSurfaceFg, theme)
	cfg.Code.Color = mdColor(colorSurfaceFg, theme)
	if cfg.CodeBlock.BackgroundColor == nil {
		cfg.CodeBlock.BackgroundColor = mdColor(colorControlBg, theme)
	}
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.BlockQuote.Faint = mdBoolPtr(false)
	return cfg
}

func mdColor(c lipgloss.AdaptiveColor, theme model.ThemeMode) *string {
	s := string(pick(c, theme))
	return &s
}

func mdBoolPtr(b bool) *bool { return &b }
