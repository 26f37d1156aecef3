package tui

import (
	"reflect"
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestFitLine(t *testing.T) {
	t.Parallel()

	if got := fitLine("abc", 5); got != "abc  " {
		t.Fatalf("pad: got %q", got)
	}
	got := fitLine("abcdefghij", 5)
	if xansi.StringWidth(got) != 5 || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate: got %q", got)
	}
	styled := "\x1b[1mbold text here\x1b[0m"
	if w := xansi.StringWidth(fitLine(styled, 6)); w != 6 {
		t.Fatalf("ansi-aware width = %d", w)
	}
	if got := fitLine("x", 0); got != "" {
		t.Fatalf("zero width: got %q", got)
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	lines := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	tests := []struct {
		name       string
		height     int
		start, end int
		want       []string
	}{
		{"pads short content", 12, 0, 1, append(append([]string(nil), lines...), "", "")},
		{"top focus", 3, 0, 1, []string{"0", "1", "2"}},
		{"bottom focus", 3, 9, 10, []string{"7", "8", "9"}},
		{"middle block end visible", 3, 4, 6, []string{"3", "4", "5"}},
		{"tall block shows its start", 3, 2, 9, []string{"2", "3", "4"}},
	}
	for _, tt := range tests {
		if got := window(lines, tt.height, tt.start, tt.end); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSingleLine(t *testing.T) {
	t.Parallel()
	if got := singleLine("  hello\n\n  world\tagain "); got != "hello world again" {
		t.Fatalf("got %q", got)
	}
}
