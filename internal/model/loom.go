package model

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"
)

// Loom is the whole conversation tree: an id -> Node map plus the root id.
//
// The map is persistent. With and Without return a new Loom that shares every
// untouched node with the receiver, so snapshots are cheap to keep around.
type Loom struct {
	Root  string
	nodes *immutable.Map[string, Node]
}

func NewLoom(root Node) Loom {
	root.Parent = ""
	return Loom{
		Root:  root.ID,
		nodes: immutable.NewMap[string, Node](nil).Set(root.ID, root),
	}
}

// LoomFromNodes builds a Loom from a flat node list (as loaded from storage)
// and validates every structural invariant before returning it.
func LoomFromNodes(root string, nodes []Node) (Loom, error) {
	m := immutable.NewMap[string, Node](nil)
	for _, n := range nodes {
		if _, dup := m.Get(n.ID); dup {
			return Loom{}, InvariantError{NodeID: n.ID, Reason: "duplicate node id"}
		}
		m = m.Set(n.ID, n)
	}
	l := Loom{Root: root, nodes: m}
	if err := l.Validate(); err != nil {
		return Loom{}, err
	}
	return l, nil
}

func (l Loom) Node(id string) (Node, bool) {
	if l.nodes == nil {
		return Node{}, false
	}
	return l.nodes.Get(id)
}

func (l Loom) Has(id string) bool {
	_, ok := l.Node(id)
	return ok
}

func (l Loom) Len() int {
	if l.nodes == nil {
		return 0
	}
	return l.nodes.Len()
}

// Nodes returns every node sorted by id.
func (l Loom) Nodes() []Node {
	out := make([]Node, 0, l.Len())
	if l.nodes == nil {
		return out
	}
	itr := l.nodes.Iterator()
	for !itr.Done() {
		_, n, _ := itr.Next()
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// With stores n, replacing any node with the same id.
func (l Loom) With(n Node) Loom {
	m := l.nodes
	if m == nil {
		m = immutable.NewMap[string, Node](nil)
	}
	return Loom{Root: l.Root, nodes: m.Set(n.ID, n)}
}

func (l Loom) Without(id string) Loom {
	if !l.Has(id) {
		return l
	}
	return Loom{Root: l.Root, nodes: l.nodes.Delete(id)}
}

// SameAs reports structural identity: true when neither snapshot was changed
// relative to the other.
func (l Loom) SameAs(o Loom) bool {
	return l.Root == o.Root && l.nodes == o.nodes
}

// PathTo returns the ids from the root down to id (inclusive). It returns
// nil when id is missing or its ancestry does not reach the root.
func (l Loom) PathTo(id string) []string {
	var rev []string
	seen := map[string]bool{}
	cur := id
	for {
		n, ok := l.Node(cur)
		if !ok || seen[cur] {
			return nil
		}
		seen[cur] = true
		rev = append(rev, cur)
		if n.IsRoot() {
			break
		}
		cur = n.Parent
	}
	if rev[len(rev)-1] != l.Root {
		return nil
	}
	out := make([]string, len(rev))
	for i, x := range rev {
		out[len(rev)-1-i] = x
	}
	return out
}

// Context returns the nodes on the path from the root to id, in order.
func (l Loom) Context(id string) []Node {
	path := l.PathTo(id)
	out := make([]Node, 0, len(path))
	for _, p := range path {
		n, _ := l.Node(p)
		out = append(out, n)
	}
	return out
}

// Subtree returns id followed by all of its descendants in pre-order.
func (l Loom) Subtree(id string) []string {
	var out []string
	var walk func(string)
	walk = func(cur string) {
		n, ok := l.Node(cur)
		if !ok {
			return
		}
		out = append(out, cur)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(id)
	return out
}

// DescendFirst follows first children from id until a leaf and returns the
// ids visited after id (not including id itself).
func (l Loom) DescendFirst(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	cur := id
	for {
		n, ok := l.Node(cur)
		if !ok || len(n.Children) == 0 {
			return out
		}
		next := n.Children[0]
		if seen[next] || !l.Has(next) {
			return out
		}
		seen[next] = true
		out = append(out, next)
		cur = next
	}
}

// Validate checks the tree invariants: the root exists and has no parent,
// parent/child links agree in both directions, every child id resolves, and
// every node is reachable from the root exactly once.
func (l Loom) Validate() error {
	root, ok := l.Node(l.Root)
	if !ok {
		return InvariantError{NodeID: l.Root, Reason: "root missing"}
	}
	if !root.IsRoot() {
		return InvariantError{NodeID: l.Root, Reason: "root has a parent"}
	}
	for _, n := range l.Nodes() {
		for _, c := range n.Children {
			child, ok := l.Node(c)
			if !ok {
				return InvariantError{NodeID: n.ID, Reason: fmt.Sprintf("dangling child %s", c)}
			}
			if child.Parent != n.ID {
				return InvariantError{NodeID: c, Reason: fmt.Sprintf("parent is %q, listed under %s", child.Parent, n.ID)}
			}
		}
		if n.ID == l.Root {
			continue
		}
		parent, ok := l.Node(n.Parent)
		if !ok {
			return InvariantError{NodeID: n.ID, Reason: fmt.Sprintf("missing parent %q", n.Parent)}
		}
		if parent.ChildIndex(n.ID) < 0 {
			return InvariantError{NodeID: n.ID, Reason: fmt.Sprintf("not listed in children of %s", n.Parent)}
		}
	}
	seen := map[string]bool{}
	var walk func(string) error
	walk = func(id string) error {
		if seen[id] {
			return InvariantError{NodeID: id, Reason: "cycle or shared child"}
		}
		seen[id] = true
		n, _ := l.Node(id)
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(l.Root); err != nil {
		return err
	}
	if len(seen) != l.Len() {
		for _, n := range l.Nodes() {
			if !seen[n.ID] {
				return InvariantError{NodeID: n.ID, Reason: "unreachable from root"}
			}
		}
	}
	return nil
}

type InvariantError struct {
	NodeID string
	Reason string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("loom invariant violated at %s: %s", e.NodeID, e.Reason)
}
