package nav

import "loon-cli/internal/model"

// Row is one visible node of a flattened tree.
type Row struct {
	ID          string
	Depth       int
	Node        model.Node
	Expanded    bool
	VisualIndex int
}

// HasChildren reports whether the node has children, shown or not.
func (r Row) HasChildren() bool { return len(r.Node.Children) > 0 }

// Flattened is the visit-ordered projection of a tree used for cursor movement.
type Flattened struct {
	rows  []Row
	index map[string]int
}

// Flatten walks the tree depth-first in pre-order from root. A node's children
// are visited, in stored order, only when its id is in expanded. Nodes under a
// collapsed ancestor are absent from the result. Child ids that do not resolve
// are skipped.
func Flatten(l model.Loom, root string, expanded model.IDSet) Flattened {
	f := Flattened{index: map[string]int{}}

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := l.Node(id)
		if !ok {
			return
		}
		// Guard against malformed input; a node is only ever listed once.
		if _, seen := f.index[id]; seen {
			return
		}
		isExpanded := expanded.Has(id)
		f.index[id] = len(f.rows)
		f.rows = append(f.rows, Row{
			ID:          id,
			Depth:       depth,
			Node:        n,
			Expanded:    isExpanded,
			VisualIndex: len(f.rows),
		})
		if !isExpanded {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return f
}

func (f Flattened) Len() int { return len(f.rows) }

// Rows returns the rows in visual order. Callers must not modify the slice.
func (f Flattened) Rows() []Row { return f.rows }

func (f Flattened) At(i int) (Row, bool) {
	if i < 0 || i >= len(f.rows) {
		return Row{}, false
	}
	return f.rows[i], true
}

func (f Flattened) Lookup(id string) (Row, bool) {
	i, ok := f.index[id]
	if !ok {
		return Row{}, false
	}
	return f.rows[i], true
}

// IDs returns the visible ids in visual order.
func (f Flattened) IDs() []string {
	out := make([]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = r.ID
	}
	return out
}
