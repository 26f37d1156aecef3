package model

import (
	"strings"
	"time"
)

type Source string

const (
	SourceHuman  Source = "human"
	SourceModel  Source = "model"
	SourceSystem Source = "system"
)

// Metadata keys understood by the core.
const (
	MetaPlaceholder = "isPlaceholder"
	MetaError       = "isError"
)

type Message struct {
	Content   string         `json:"content"`
	Source    Source         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (m Message) flag(key string) bool {
	if m.Metadata == nil {
		return false
	}
	v, ok := m.Metadata[key].(bool)
	return ok && v
}

// IsPlaceholder reports whether the message is reserving a slot for an in-flight completion.
func (m Message) IsPlaceholder() bool { return m.flag(MetaPlaceholder) }

func (m Message) IsError() bool { return m.flag(MetaError) }

// Node is one conversation turn. Parent is empty only for the root.
//
// Children must be treated as read-only: every change stores a fresh slice so
// older Loom snapshots keep seeing their own child order.
type Node struct {
	ID       string   `json:"id"`
	Message  Message  `json:"message"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
	IsEdited bool     `json:"isEdited"`
}

func (n Node) IsRoot() bool { return strings.TrimSpace(n.Parent) == "" }

func (n Node) HasChildren() bool { return len(n.Children) > 0 }

// ChildIndex returns the position of id among n's children, or -1.
func (n Node) ChildIndex(id string) int {
	for i, c := range n.Children {
		if c == id {
			return i
		}
	}
	return -1
}

type ViewType string

const (
	ViewOutline ViewType = "outline"
	ViewPath    ViewType = "path"
)

// ParseViewType accepts the current names plus the legacy "forest" alias.
func ParseViewType(s string) (ViewType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "outline", "forest", "tree":
		return ViewOutline, true
	case "path":
		return ViewPath, true
	default:
		return "", false
	}
}

func (v ViewType) Toggle() ViewType {
	if v == ViewPath {
		return ViewOutline
	}
	return ViewPath
}

type ThemeMode string

const (
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"
)

func (t ThemeMode) Toggle() ThemeMode {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

type FocusSurface string

const (
	FocusCommand FocusSurface = "command"
	FocusTree    FocusSurface = "tree"
)

// Focus names the surface holding keyboard input. Node is the indicated tree
// node; with command focus it is the node the cursor returns to.
type Focus struct {
	Surface FocusSurface `json:"surface"`
	Node    string       `json:"node,omitempty"`
}

type ViewState struct {
	ViewType    ViewType  `json:"viewType"`
	Theme       ThemeMode `json:"themeMode"`
	Expanded    IDSet     `json:"expanded"`
	CurrentPath []string  `json:"currentPath"`
	Focus       Focus     `json:"focus"`

	// Editing is the node whose inline editor is open. Not persisted.
	Editing string `json:"-"`
}

// LastInPath returns the deepest node of the current path.
func (v ViewState) LastInPath() (string, bool) {
	if len(v.CurrentPath) == 0 {
		return "", false
	}
	return v.CurrentPath[len(v.CurrentPath)-1], true
}

// PathIndex returns the position of id in the current path, or -1.
func (v ViewState) PathIndex(id string) int {
	for i, p := range v.CurrentPath {
		if p == id {
			return i
		}
	}
	return -1
}
