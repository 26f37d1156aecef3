package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// fitLines forces every line to exactly width columns (ANSI-aware), cutting
// with an ellipsis or padding with spaces.
func fitLines(lines []string, width int) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = fitLine(ln, width)
	}
	return out
}

func fitLine(ln string, width int) string {
	if width <= 0 {
		return ""
	}
	// Bound the width computation on pathological lines.
	if len(ln) > 8192 {
		ln = xansi.Cut(ln, 0, width)
	}
	w := xansi.StringWidth(ln)
	if w > width {
		ln = xansi.Truncate(ln, width, "…")
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// window returns at most height lines of lines, scrolled so that the range
// [focusStart, focusEnd) is visible, preferring to show it from its start.
func window(lines []string, height, focusStart, focusEnd int) []string {
	if height <= 0 {
		return nil
	}
	if len(lines) <= height {
		out := append([]string(nil), lines...)
		for len(out) < height {
			out = append(out, "")
		}
		return out
	}
	focusStart = max(0, min(focusStart, len(lines)-1))
	focusEnd = max(focusStart+1, min(focusEnd, len(lines)))

	top := focusEnd - height
	if top < 0 {
		top = 0
	}
	if focusStart < top {
		top = focusStart
	}
	if top+height > len(lines) {
		top = len(lines) - height
	}
	return append([]string(nil), lines[top:top+height]...)
}

// singleLine flattens s to one line for previews.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}
