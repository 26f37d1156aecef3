package command

import "unicode"

// splitWords splits a command line into words. Single and double quotes group
// words and a backslash escapes the next rune outside single quotes. It also
// reports whether a quote was left open.
func splitWords(s string) ([]string, bool) {
	var out []string
	var cur []rune
	inSingle := false
	inDouble := false
	escaped := false
	quoted := false

	flush := func() {
		if len(cur) == 0 && !quoted {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
		quoted = false
	}

	for _, r := range s {
		if escaped {
			cur = append(cur, r)
			escaped = false
			continue
		}
		if r == '\\' && !inSingle {
			escaped = true
			continue
		}
		if r == '\'' && !inDouble {
			inSingle = !inSingle
			quoted = true
			continue
		}
		if r == '"' && !inSingle {
			inDouble = !inDouble
			quoted = true
			continue
		}
		if !inSingle && !inDouble && unicode.IsSpace(r) {
			flush()
			continue
		}
		cur = append(cur, r)
	}

	flush()
	return out, !inSingle && !inDouble
}
