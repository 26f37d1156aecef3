package mutate

import (
	"time"

	"loon-cli/internal/model"
)

const (
	RootID         = "root"
	welcomeMessage = "Welcome to Loon! Branch a conversation with a language model: type @go in the command bar to ask for replies."
)

// State is one immutable snapshot of the application.
type State struct {
	Loom    model.Loom
	View    model.ViewState
	Config  model.Config
	Pending model.IDSet
}

// NewState returns the initial state: a single system root, expanded and indicated.
func NewState(cfg model.Config, now time.Time) State {
	root := model.Node{
		ID: RootID,
		Message: model.Message{
			Content:   welcomeMessage,
			Source:    model.SourceSystem,
			Timestamp: now,
		},
		Children: []string{},
	}
	return State{
		Loom: model.NewLoom(root),
		View: model.ViewState{
			ViewType:    model.ViewOutline,
			Theme:       model.ThemeDark,
			Expanded:    model.NewIDSet(RootID),
			CurrentPath: []string{RootID},
			Focus:       model.Focus{Surface: model.FocusTree, Node: RootID},
		},
		Config: cfg,
	}
}

// Indicated returns the node the cursor is on, falling back to the root.
func (s State) Indicated() string {
	if id := s.View.Focus.Node; id != "" && s.Loom.Has(id) {
		return id
	}
	return s.Loom.Root
}

// Target returns the node a command acts on: the end of the current path in
// path view, the indicated node in outline view.
func (s State) Target() string {
	if s.View.ViewType == model.ViewPath {
		if last, ok := s.View.LastInPath(); ok && s.Loom.Has(last) {
			return last
		}
	}
	return s.Indicated()
}

// IsPending reports whether id is waiting on a completion.
func (s State) IsPending(id string) bool { return s.Pending.Has(id) }
