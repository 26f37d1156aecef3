package mutate

import (
	"slices"

	"loon-cli/internal/model"

	"go.uber.org/zap"
)

// navigateSibling switches the branch shown at one level of the path. The
// path keeps everything above the node, swaps in the sibling, and then runs as
// deep as the sibling's first-child chain goes.
func (r *Reducer) navigateSibling(st State, a NavigateSibling) State {
	n, ok := st.Loom.Node(a.NodeID)
	if !ok {
		return r.missing(st, a, "node", a.NodeID)
	}
	if n.IsRoot() {
		return r.refuse(st, a, "node has no parent", zap.String("node", a.NodeID))
	}
	parent, ok := st.Loom.Node(n.Parent)
	if !ok {
		return r.missing(st, a, "parent", n.Parent)
	}
	siblings := parent.Children
	cur := parent.ChildIndex(n.ID)
	if cur < 0 {
		return r.refuse(st, a, "node not listed under its parent", zap.String("node", a.NodeID))
	}
	next := siblingIndex(cur, len(siblings), a.Direction, st.Config.Navigation.CircularSiblings)
	sib := siblings[next]

	var prefix []string
	if i := st.View.PathIndex(n.ID); i >= 0 {
		prefix = slices.Clone(st.View.CurrentPath[:i])
	} else {
		prefix = st.Loom.PathTo(parent.ID)
		if prefix == nil {
			return r.refuse(st, a, "parent is not reachable from the root", zap.String("parent", parent.ID))
		}
	}
	path := append(prefix, sib)
	path = append(path, st.Loom.DescendFirst(sib)...)

	st.View.CurrentPath = path
	st.View.Focus = model.Focus{Surface: model.FocusTree, Node: sib}
	return st
}

func siblingIndex(cur, count int, d SiblingDirection, circular bool) int {
	switch d {
	case SiblingNext:
		if circular {
			return (cur + 1) % count
		}
		return min(cur+1, count-1)
	default:
		if circular {
			return (cur - 1 + count) % count
		}
		return max(cur-1, 0)
	}
}

func (r *Reducer) navigateVertical(st State, a NavigateVertical) State {
	path := st.View.CurrentPath
	switch a.Direction {
	case VerticalUp:
		if len(path) <= 1 {
			return r.refuse(st, a, "already at the top of the path")
		}
		path = slices.Clone(path[:len(path)-1])
	case VerticalDown:
		last, ok := st.View.LastInPath()
		if !ok {
			return r.refuse(st, a, "path is empty")
		}
		n, ok := st.Loom.Node(last)
		if !ok {
			return r.missing(st, a, "node", last)
		}
		if !n.HasChildren() || !st.Loom.Has(n.Children[0]) {
			return r.refuse(st, a, "already at the bottom of the path")
		}
		path = append(slices.Clone(path), n.Children[0])
	default:
		return r.refuse(st, a, "unknown direction")
	}
	st.View.CurrentPath = path
	if st.View.Focus.Surface == model.FocusTree {
		st.View.Focus.Node = path[len(path)-1]
	}
	return st
}
