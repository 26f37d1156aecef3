package nav

import "fmt"

type Direction int

const (
	Next Direction = iota
	Prev
	Parent
	FirstChild
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	case Parent:
		return "parent"
	case FirstChild:
		return "first-child"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Navigate answers where the cursor goes from current in direction d.
// It returns false when there is no such node, including when current is not
// part of the flattened tree (for example a stale id after a deletion).
func Navigate(current string, d Direction, f Flattened) (string, bool) {
	row, ok := f.Lookup(current)
	if !ok {
		return "", false
	}
	switch d {
	case Next:
		next, ok := f.At(row.VisualIndex + 1)
		return next.ID, ok
	case Prev:
		prev, ok := f.At(row.VisualIndex - 1)
		return prev.ID, ok
	case Parent:
		if row.Node.IsRoot() {
			return "", false
		}
		return row.Node.Parent, true
	case FirstChild:
		if !row.Expanded || len(row.Node.Children) == 0 {
			return "", false
		}
		return row.Node.Children[0], true
	default:
		return "", false
	}
}
