package tui

import (
	"os"
	"strings"
	"sync/atomic"
)

// glyphSet holds every symbol the UI draws. Some fonts render the Unicode
// set badly, so LOON_TUI_GLYPHS=ascii swaps in plain characters.
type glyphSet struct {
	name            string
	twistyCollapsed string
	twistyExpanded  string
	leaf            string
	cursor          string
	siblingPrev     string
	siblingNext     string
	hrule           string
	ellipsis        string
}

var (
	unicodeGlyphs = &glyphSet{
		name:            "unicode",
		twistyCollapsed: "▸",
		twistyExpanded:  "▾",
		leaf:            "·",
		cursor:          "▌",
		siblingPrev:     "‹",
		siblingNext:     "›",
		hrule:           "─",
		ellipsis:        "…",
	}
	asciiGlyphs = &glyphSet{
		name:            "ascii",
		twistyCollapsed: ">",
		twistyExpanded:  "v",
		leaf:            "-",
		cursor:          "|",
		siblingPrev:     "<",
		siblingNext:     ">",
		hrule:           "-",
		ellipsis:        "...",
	}

	activeGlyphs atomic.Pointer[glyphSet]
)

func init() { activeGlyphs.Store(unicodeGlyphs) }

// applyGlyphPreference reads LOON_TUI_GLYPHS. Unknown values leave the
// current set in place.
func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOON_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		activeGlyphs.Store(unicodeGlyphs)
	case "ascii":
		activeGlyphs.Store(asciiGlyphs)
	}
}

func glyph() *glyphSet { return activeGlyphs.Load() }
