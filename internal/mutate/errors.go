package mutate

import "fmt"

// NotFoundError names a node the action referred to but the tree lacks.
// The reducer never returns it; it is attached to no-op diagnostics.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
