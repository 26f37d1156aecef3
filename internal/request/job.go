package request

import (
	"context"

	"loon-cli/internal/model"
)

// Job is one completion to fetch for a placeholder node.
type Job struct {
	ParentID string
	NodeID   string
	Context  []model.Node
	Card     model.ModelCard
	APIKey   string
}

// Result carries a finished job back to whoever owns the tree.
type Result struct {
	NodeID  string
	Content string
	Err     error
}

func (j Job) Run(ctx context.Context, c Completer) Result {
	text, err := c.Complete(ctx, j.Context, j.Card, j.APIKey)
	return Result{NodeID: j.NodeID, Content: text, Err: err}
}
