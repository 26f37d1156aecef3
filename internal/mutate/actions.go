package mutate

import "loon-cli/internal/model"

// Action is one discrete intent applied by Reducer.Apply. The set of actions is
// closed: only types in this package implement it.
type Action interface {
	actionName() string
}

type SiblingDirection int

const (
	SiblingPrev SiblingDirection = iota
	SiblingNext
)

type VerticalDirection int

const (
	VerticalUp VerticalDirection = iota
	VerticalDown
)

// LoadNodes replaces the node map wholesale, typically from persisted state.
type LoadNodes struct {
	Root  string
	Nodes []model.Node
}

// LoadViewState replaces the view state wholesale.
type LoadViewState struct {
	View model.ViewState
}

type SetFocus struct {
	Focus model.Focus
}

// FocusNode indicates a tree node and gives the tree keyboard focus.
type FocusNode struct {
	ID string
}

// FocusCommand moves keyboard focus to the command input, remembering the indicated node.
type FocusCommand struct{}

// FocusTree returns keyboard focus to the tree at the remembered node.
type FocusTree struct{}

type NavigateSibling struct {
	Direction SiblingDirection
	NodeID    string
}

type NavigateVertical struct {
	Direction VerticalDirection
}

type SetNodeExpanded struct {
	ID       string
	Expanded bool
}

type EditNode struct {
	ID      string
	Content string
}

type CreateChildNode struct {
	ParentID string
}

type DeleteNode struct {
	ID string
}

// AddPlaceholderNode reserves a child slot for an in-flight completion. The
// caller picks NodeID so it can later address the same node in ReplacePlaceholderNode.
type AddPlaceholderNode struct {
	ParentID string
	NodeID   string
}

type ReplacePlaceholderNode struct {
	NodeID  string
	Content string
	IsError bool
}

type SetViewType struct {
	ViewType model.ViewType
}

type ToggleTheme struct{}

// EnterEditMode opens the inline editor on a node.
type EnterEditMode struct {
	ID string
}

type ExitEditMode struct{}

type SetAPIKey struct {
	Service string
	Key     string
}

type RemoveAPIKey struct {
	Service string
}

type SetCircularSiblings struct {
	Enabled bool
}

func (LoadNodes) actionName() string              { return "load-nodes" }
func (LoadViewState) actionName() string          { return "load-view-state" }
func (SetFocus) actionName() string               { return "set-focus" }
func (FocusNode) actionName() string              { return "focus-node" }
func (FocusCommand) actionName() string           { return "focus-command" }
func (FocusTree) actionName() string              { return "focus-tree" }
func (NavigateSibling) actionName() string        { return "navigate-sibling" }
func (NavigateVertical) actionName() string       { return "navigate-vertical" }
func (SetNodeExpanded) actionName() string        { return "set-node-expanded" }
func (EditNode) actionName() string               { return "edit-node" }
func (CreateChildNode) actionName() string        { return "create-child-node" }
func (DeleteNode) actionName() string             { return "delete-node" }
func (AddPlaceholderNode) actionName() string     { return "add-placeholder-node" }
func (ReplacePlaceholderNode) actionName() string { return "replace-placeholder-node" }
func (SetViewType) actionName() string            { return "set-view-type" }
func (ToggleTheme) actionName() string            { return "toggle-theme" }
func (EnterEditMode) actionName() string          { return "enter-edit-mode" }
func (ExitEditMode) actionName() string           { return "exit-edit-mode" }
func (SetAPIKey) actionName() string              { return "set-api-key" }
func (RemoveAPIKey) actionName() string           { return "remove-api-key" }
func (SetCircularSiblings) actionName() string    { return "set-circular-siblings" }

// Name returns the stable name of an action, used in logs.
func Name(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return a.actionName()
}
