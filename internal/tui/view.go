package tui

import (
	"fmt"
	"strings"

	"loon-cli/internal/command"
	"loon-cli/internal/model"
	"loon-cli/internal/mutate"
	"loon-cli/internal/nav"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const maxSuggestions = 5

func (m appModel) View() string {
	st := m.state()
	sty := newUIStyles(st.View.Theme)
	width := max(20, m.width)

	header := m.renderHeader(st, sty, width)
	footer := m.renderFooter(st, sty, width)

	bodyH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	var editor string
	if st.View.Editing != "" {
		editor = m.renderEditor(st, sty, width)
		bodyH -= lipgloss.Height(editor)
	}
	bodyH = max(1, bodyH)

	var body []string
	if st.View.ViewType == model.ViewPath {
		body = m.renderPath(st, sty, width, bodyH)
	} else {
		body = m.renderOutline(st, sty, width, bodyH)
	}

	parts := []string{header, strings.Join(fitLines(body, width), "\n")}
	if editor != "" {
		parts = append(parts, editor)
	}
	parts = append(parts, footer)
	return strings.Join(parts, "\n")
}

func (m appModel) renderHeader(st mutate.State, sty uiStyles, width int) string {
	title := fmt.Sprintf("loon %s %s view", glyph().hrule, st.View.ViewType)
	info := []string{string(st.View.Theme)}
	if n := st.Pending.Len(); n > 0 {
		info = append(info, fmt.Sprintf("%s %d pending", m.spinner.View(), n))
	}
	if !st.Config.Navigation.CircularSiblings {
		info = append(info, "no wrap")
	}
	right := strings.Join(info, "  ")
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(right)-2)
	return sty.header.Width(width).Render(title + strings.Repeat(" ", gap) + right)
}

func (m appModel) renderOutline(st mutate.State, sty uiStyles, width, height int) []string {
	flat := nav.Flatten(st.Loom, st.Loom.Root, st.View.Expanded)
	cur := st.Indicated()
	treeFocused := st.View.Focus.Surface == model.FocusTree

	lines := make([]string, 0, flat.Len())
	focus := 0
	for _, row := range flat.Rows() {
		if row.ID == cur {
			focus = row.VisualIndex
		}
		lines = append(lines, m.renderOutlineRow(st, sty, row, width, row.ID == cur, treeFocused))
	}
	return window(lines, height, focus, focus+1)
}

func (m appModel) renderOutlineRow(st mutate.State, sty uiStyles, row nav.Row, width int, selected, treeFocused bool) string {
	n := row.Node
	twisty := glyph().leaf
	if row.HasChildren() {
		if row.Expanded {
			twisty = glyph().twistyExpanded
		} else {
			twisty = glyph().twistyCollapsed + fmt.Sprintf("%d", len(n.Children))
		}
	}
	prefix := strings.Repeat("  ", row.Depth) + twisty + " "

	label := sty.sourceLabel(n.Message.Source)
	if n.IsEdited {
		label += sty.edited.Render("*")
	}

	var preview string
	switch {
	case st.IsPending(n.ID):
		preview = sty.muted.Render(m.spinner.View() + " generating" + glyph().ellipsis)
	case n.Message.IsError():
		preview = sty.err.Render(singleLine(n.Message.Content))
	case strings.TrimSpace(n.Message.Content) == "":
		preview = sty.muted.Render("(empty)")
	default:
		preview = singleLine(n.Message.Content)
	}

	line := prefix + label + " " + preview
	if !selected {
		return " " + line
	}
	line = fitLine(line, width-1)
	if treeFocused {
		return sty.cursor.Render(glyph().cursor) + sty.selected.Render(line)
	}
	return sty.cursor.Render(glyph().cursor) + line
}

func (m appModel) renderPath(st mutate.State, sty uiStyles, width, height int) []string {
	cur := pathCursor(st)
	textW := max(10, width-4)

	var lines []string
	focusStart, focusEnd := 0, 1
	for i, id := range st.View.CurrentPath {
		n, ok := st.Loom.Node(id)
		if !ok {
			continue
		}
		if i > 0 {
			lines = append(lines, "")
		}
		start := len(lines)
		lines = append(lines, m.pathBlockHeader(st, sty, n))
		lines = append(lines, strings.Split(m.pathBlockBody(st, sty, n, textW), "\n")...)
		marker := "  "
		if id == cur {
			marker = sty.cursor.Render(glyph().cursor) + " "
			focusStart, focusEnd = start, len(lines)
		}
		for j := start; j < len(lines); j++ {
			lines[j] = marker + lines[j]
		}
	}
	if last, ok := st.View.LastInPath(); ok {
		if n, ok := st.Loom.Node(last); ok && n.HasChildren() {
			lines = append(lines, "", sty.muted.Render(fmt.Sprintf("  %d more below (down)", len(n.Children))))
		}
	}
	return window(lines, height, focusStart, focusEnd)
}

func (m appModel) pathBlockHeader(st mutate.State, sty uiStyles, n model.Node) string {
	parts := []string{sty.sourceLabel(n.Message.Source)}
	if n.IsEdited {
		parts = append(parts, sty.edited.Render("edited"))
	}
	if p, ok := st.Loom.Node(n.Parent); ok && len(p.Children) > 1 {
		idx := p.ChildIndex(n.ID) + 1
		parts = append(parts, sty.muted.Render(fmt.Sprintf("%s %d/%d %s", glyph().siblingPrev, idx, len(p.Children), glyph().siblingNext)))
	}
	return strings.Join(parts, " ")
}

func (m appModel) pathBlockBody(st mutate.State, sty uiStyles, n model.Node, width int) string {
	switch {
	case st.IsPending(n.ID):
		return sty.muted.Render(m.spinner.View() + " generating" + glyph().ellipsis)
	case n.Message.IsError():
		return sty.err.Render(wordwrap.String(n.Message.Content, width))
	case strings.TrimSpace(n.Message.Content) == "":
		return sty.muted.Render("(empty)")
	case n.Message.Source == model.SourceModel:
		return renderMarkdown(n.Message.Content, width, st.View.Theme)
	default:
		return sty.text.Render(wordwrap.String(n.Message.Content, width))
	}
}

func (m appModel) renderEditor(st mutate.State, sty uiStyles, width int) string {
	title := sty.muted.Render("editing " + glyph().hrule + " ctrl+s save, esc cancel")
	if n, ok := st.Loom.Node(st.View.Editing); ok && n.HasChildren() {
		title = sty.muted.Render("editing (has replies: saving creates a new branch) " + glyph().hrule + " ctrl+s save, esc cancel")
	}
	return fitLine(title, width) + "\n" + indent.String(m.editor.View(), 1)
}

func (m appModel) renderFooter(st mutate.State, sty uiStyles, width int) string {
	var lines []string

	if st.View.Focus.Surface == model.FocusCommand {
		sugg := command.Suggest(m.input.Value(), st.Config)
		if len(sugg) > maxSuggestions {
			sugg = sugg[:maxSuggestions]
		}
		for _, s := range sugg {
			lines = append(lines, sty.suggest.Render(fitLine(fmt.Sprintf("  %-24s %s", s.DisplayText, s.Description), width)))
		}
	}

	if m.status != "" {
		line := sty.muted
		if m.statusErr {
			line = sty.err
		}
		lines = append(lines, line.Render(fitLine(m.status, width)))
	}

	if st.View.Focus.Surface == model.FocusCommand {
		lines = append(lines, sty.input.Render(fitLine(m.input.View(), width)))
	} else {
		lines = append(lines, sty.hint.Render(fitLine(keyHints(st.View.ViewType), width)))
	}
	return strings.Join(lines, "\n")
}

func keyHints(vt model.ViewType) string {
	common := "enter edit  n reply  d delete  : command  tab view  q quit"
	if vt == model.ViewPath {
		return "up/down depth  left/right siblings  " + common
	}
	return "arrows move  space fold  " + common
}
