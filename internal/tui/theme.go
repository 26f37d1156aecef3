package tui

import (
	"os"
	"strings"

	"loon-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors are declared as light/dark pairs. Unlike a terminal-detected
// AdaptiveColor, the variant is picked from the theme stored in the view
// state, so the "theme" command switches the whole UI at once.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func pick(c lipgloss.AdaptiveColor, t model.ThemeMode) lipgloss.Color {
	if t == model.ThemeLight {
		return lipgloss.Color(c.Light)
	}
	return lipgloss.Color(c.Dark)
}

var (
	colorSurfaceFg  = ac("235", "252")
	colorMuted      = ac("240", "243")
	colorAccent     = ac("27", "62")
	colorAccentFg   = ac("255", "235")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorControlBg  = ac("252", "235")
	colorInputBg    = ac("254", "234")
	colorError      = ac("160", "203")
	colorHuman      = ac("24", "117")
	colorModel      = ac("28", "114")
	colorSystem     = ac("96", "183")
)

type uiStyles struct {
	theme model.ThemeMode

	text     lipgloss.Style
	muted    lipgloss.Style
	header   lipgloss.Style
	selected lipgloss.Style
	cursor   lipgloss.Style
	err      lipgloss.Style
	edited   lipgloss.Style
	input    lipgloss.Style
	hint     lipgloss.Style
	suggest  lipgloss.Style
	source   map[model.Source]lipgloss.Style
}

func newUIStyles(t model.ThemeMode) uiStyles {
	muted := lipgloss.NewStyle().Foreground(pick(colorMuted, t))
	if t == model.ThemeDark {
		// Faint text on light terminals is often illegible.
		muted = muted.Faint(true)
	}
	return uiStyles{
		theme:    t,
		text:     lipgloss.NewStyle().Foreground(pick(colorSurfaceFg, t)),
		muted:    muted,
		header:   lipgloss.NewStyle().Bold(true).Foreground(pick(colorAccentFg, t)).Background(pick(colorAccent, t)).Padding(0, 1),
		selected: lipgloss.NewStyle().Foreground(pick(colorSelectedFg, t)).Background(pick(colorSelectedBg, t)),
		cursor:   lipgloss.NewStyle().Foreground(pick(colorAccent, t)),
		err:      lipgloss.NewStyle().Foreground(pick(colorError, t)),
		edited:   lipgloss.NewStyle().Foreground(pick(colorAccent, t)).Bold(true),
		input:    lipgloss.NewStyle().Background(pick(colorInputBg, t)),
		hint:     lipgloss.NewStyle().Foreground(pick(colorMuted, t)).Background(pick(colorControlBg, t)),
		suggest:  lipgloss.NewStyle().Foreground(pick(colorSurfaceFg, t)).Background(pick(colorControlBg, t)),
		source: map[model.Source]lipgloss.Style{
			model.SourceHuman:  lipgloss.NewStyle().Bold(true).Foreground(pick(colorHuman, t)),
			model.SourceModel:  lipgloss.NewStyle().Bold(true).Foreground(pick(colorModel, t)),
			model.SourceSystem: lipgloss.NewStyle().Bold(true).Foreground(pick(colorSystem, t)),
		},
	}
}

func (s uiStyles) sourceLabel(src model.Source) string {
	label := string(src)
	if src == model.SourceHuman {
		label = "you"
	}
	st, ok := s.source[src]
	if !ok {
		st = s.muted
	}
	return st.Render(label)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI. Only
// NO_COLOR is honored; CLICOLOR handling in termenv's env profile can disable
// colors in a full-screen UI unexpectedly.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()

	// Detection under-reports on some terminals; trust explicit env hints.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}
