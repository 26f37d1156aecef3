package tui

import (
	"context"
	"errors"
	"fmt"

	"loon-cli/internal/command"
	"loon-cli/internal/model"
	"loon-cli/internal/mutate"
	"loon-cli/internal/nav"
	"loon-cli/internal/request"
	"loon-cli/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// completionMsg delivers a finished completion job back to Update, where it is
// resolved on the UI goroutine.
type completionMsg struct {
	result request.Result
}

type appModel struct {
	ctx     context.Context
	session *session.Session

	width  int
	height int

	input    textinput.Model
	editor   textarea.Model
	spinner  spinner.Model
	spinning bool

	status    string
	statusErr bool
}

func newAppModel(ctx context.Context, s *session.Session) appModel {
	m := appModel{
		ctx:     ctx,
		session: s,
		width:   80,
		height:  24,
	}

	m.input = textinput.New()
	m.input.Prompt = ": "
	m.input.Placeholder = "@go 4, view, theme, key add <service> <key>"
	m.input.CharLimit = 512
	m.input.Width = 60

	m.editor = textarea.New()
	m.editor.Placeholder = "Write…"
	m.editor.CharLimit = 0
	m.editor.ShowLineNumbers = false
	m.editor.SetWidth(72)
	m.editor.SetHeight(8)

	m.spinner = spinner.New(spinner.WithSpinner(spinner.MiniDot))

	st := s.State()
	if st.View.Focus.Surface == model.FocusCommand {
		m.input.Focus()
	}
	// Init owns the first tick loop when the session opens mid-generation.
	m.spinning = st.Pending.Len() > 0
	return m
}

func (m appModel) state() mutate.State { return m.session.State() }

func (m appModel) Init() tea.Cmd {
	if m.spinning {
		return m.spinner.Tick
	}
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		m.editor.SetWidth(max(20, msg.Width-4))
		m.editor.SetHeight(max(3, msg.Height/3))
		return m, nil

	case completionMsg:
		m.session.Resolve(msg.result)
		if msg.result.Err != nil {
			m.setError(fmt.Errorf("completion failed: %w", msg.result.Err))
		}
		return m, nil

	case spinner.TickMsg:
		if m.state().Pending.Len() == 0 {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		st := m.state()
		switch {
		case st.View.Editing != "":
			return m.updateEditor(msg)
		case st.View.Focus.Surface == model.FocusCommand:
			return m.updateCommandBar(msg)
		default:
			return m.updateTree(msg)
		}
	}
	return m, nil
}

func (m *appModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *appModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m appModel) updateCommandBar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.input.SetValue("")
		m.session.Dispatch(mutate.FocusTree{})
		return m, nil
	case "tab":
		if sugg := command.Suggest(m.input.Value(), m.state().Config); len(sugg) > 0 {
			m.input.SetValue(sugg[0].Text)
			m.input.CursorEnd()
		}
		return m, nil
	case "enter":
		return m.runCommand(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) runCommand(input string) (tea.Model, tea.Cmd) {
	plan, err := m.session.RunCommand(input)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.input.SetValue("")
	m.input.Blur()
	m.session.Dispatch(mutate.FocusTree{})
	if len(plan.Jobs) == 0 {
		m.setStatus("")
		return m, nil
	}
	m.setStatus(fmt.Sprintf("requesting %d completion(s) from %s", len(plan.Jobs), plan.Jobs[0].Card.Model))
	return m, m.startJobs(plan.Jobs)
}

// startJobs turns each job into its own command so results arrive
// independently, in whatever order the endpoint answers.
func (m *appModel) startJobs(jobs []request.Job) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(jobs)+1)
	completer := m.session.Completer()
	ctx := m.ctx
	for _, j := range jobs {
		cmds = append(cmds, func() tea.Msg {
			return completionMsg{result: j.Run(ctx, completer)}
		})
	}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m appModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.state().View.Editing
	switch msg.String() {
	case "esc":
		m.editor.Blur()
		m.session.Dispatch(mutate.ExitEditMode{})
		return m, nil
	case "ctrl+s":
		m.editor.Blur()
		m.session.Dispatch(mutate.EditNode{ID: id, Content: m.editor.Value()}, mutate.ExitEditMode{})
		if st := m.state(); st.View.Focus.Node != id {
			m.setStatus("edited a node with replies: saved as a new branch")
		} else {
			m.setStatus("")
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *appModel) openEditor(id string) tea.Cmd {
	if m.state().IsPending(id) {
		m.setError(errors.New("cannot edit a node that is still generating"))
		return nil
	}
	st := m.session.Dispatch(mutate.EnterEditMode{ID: id})
	n, ok := st.Loom.Node(id)
	if !ok || st.View.Editing != id {
		return nil
	}
	m.editor.SetValue(n.Message.Content)
	m.editor.CursorEnd()
	return m.editor.Focus()
}

func (m appModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.state()
	key := msg.String()

	switch key {
	case "q":
		return m, tea.Quit
	case ":", "/":
		m.session.Dispatch(mutate.FocusCommand{})
		m.input.SetValue("")
		return m, m.input.Focus()
	case "tab":
		m.session.Dispatch(mutate.SetViewType{ViewType: st.View.ViewType.Toggle()})
		return m, nil
	case "enter", "e":
		return m, m.openEditor(m.actionTarget(st))
	case "n":
		parent := m.actionTarget(st)
		if st.IsPending(parent) {
			m.setError(errors.New("cannot reply to a node that is still generating"))
			return m, nil
		}
		next := m.session.Dispatch(mutate.CreateChildNode{ParentID: parent})
		if next.Loom.SameAs(st.Loom) {
			return m, nil
		}
		return m, m.openEditor(next.View.Focus.Node)
	case "d":
		target := m.actionTarget(st)
		next := m.session.Dispatch(mutate.DeleteNode{ID: target})
		if next.Loom.SameAs(st.Loom) {
			m.setError(deleteRefusal(st, target))
		} else {
			m.setStatus("")
		}
		return m, nil
	}

	if st.View.ViewType == model.ViewPath {
		return m.updatePathKeys(st, key)
	}
	return m.updateOutlineKeys(st, key)
}

func deleteRefusal(st mutate.State, id string) error {
	n, ok := st.Loom.Node(id)
	switch {
	case !ok:
		return fmt.Errorf("cannot delete: unknown node %s", id)
	case n.IsRoot():
		return errors.New("cannot delete the root")
	case n.HasChildren():
		return errors.New("cannot delete a node with replies; delete the replies first")
	default:
		return errors.New("cannot delete node")
	}
}

func (m appModel) updateOutlineKeys(st mutate.State, key string) (tea.Model, tea.Cmd) {
	cur := st.Indicated()
	move := func(d nav.Direction) {
		flat := nav.Flatten(st.Loom, st.Loom.Root, st.View.Expanded)
		if next, ok := nav.Navigate(cur, d, flat); ok {
			m.session.Dispatch(mutate.FocusNode{ID: next})
		}
	}
	switch key {
	case "up", "k":
		move(nav.Prev)
	case "down", "j":
		move(nav.Next)
	case "left", "h":
		move(nav.Parent)
	case "right", "l":
		move(nav.FirstChild)
	case "ctrl+left":
		m.session.Dispatch(mutate.SetNodeExpanded{ID: cur, Expanded: false})
	case "ctrl+right":
		m.session.Dispatch(mutate.SetNodeExpanded{ID: cur, Expanded: true})
	case " ":
		m.session.Dispatch(mutate.SetNodeExpanded{ID: cur, Expanded: !st.View.Expanded.Has(cur)})
	}
	return m, nil
}

func (m appModel) updatePathKeys(st mutate.State, key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.session.Dispatch(mutate.NavigateVertical{Direction: mutate.VerticalUp})
	case "down", "j":
		m.session.Dispatch(mutate.NavigateVertical{Direction: mutate.VerticalDown})
	case "left", "h":
		m.session.Dispatch(mutate.NavigateSibling{Direction: mutate.SiblingPrev, NodeID: pathCursor(st)})
	case "right", "l":
		m.session.Dispatch(mutate.NavigateSibling{Direction: mutate.SiblingNext, NodeID: pathCursor(st)})
	}
	return m, nil
}

// pathCursor is the node the path view acts on: the indicated node when it is
// on the path, otherwise the end of the path.
func pathCursor(st mutate.State) string {
	if id := st.View.Focus.Node; st.View.PathIndex(id) >= 0 {
		return id
	}
	if last, ok := st.View.LastInPath(); ok {
		return last
	}
	return st.Loom.Root
}

// actionTarget is the node edit, reply and delete keys act on.
func (m appModel) actionTarget(st mutate.State) string {
	if st.View.ViewType == model.ViewPath {
		return pathCursor(st)
	}
	return st.Indicated()
}
