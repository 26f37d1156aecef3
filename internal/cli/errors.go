package cli

import (
	"errors"
	"fmt"

	"loon-cli/internal/model"
	"loon-cli/internal/mutate"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// errDeleteRefused explains why the reducer left the tree unchanged for a delete.
func errDeleteRefused(st mutate.State, id string) error {
	n, ok := st.Loom.Node(id)
	switch {
	case !ok:
		return errNotFound("node", id)
	case n.IsRoot():
		return errors.New("cannot delete the root node")
	case n.HasChildren():
		return fmt.Errorf("cannot delete node %s: it has %d replies; delete them first", id, len(n.Children))
	default:
		return fmt.Errorf("cannot delete node %s", id)
	}
}

func requireNode(st mutate.State, id string) (model.Node, error) {
	n, ok := st.Loom.Node(id)
	if !ok {
		return model.Node{}, errNotFound("node", id)
	}
	return n, nil
}

var errEmptyKeyArgs = errors.New("service and key must not be empty")
