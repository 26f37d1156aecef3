package cli

import (
	"fmt"
	"strings"

	"loon-cli/internal/model"
	"loon-cli/internal/nav"

	"github.com/muesli/reflow/indent"
)

const previewWidth = 72

type treeOutput struct {
	Root    string       `json:"root"`
	Focus   string       `json:"focus"`
	Nodes   []model.Node `json:"nodes"`
	Pending []string     `json:"pending"`

	loom model.Loom
}

// Text prints the whole tree fully expanded, one node per line.
func (o treeOutput) Text() string {
	all := make([]string, 0, len(o.Nodes))
	for _, n := range o.Nodes {
		all = append(all, n.ID)
	}
	flat := nav.Flatten(o.loom, o.Root, model.NewIDSet(all...))
	pending := model.NewIDSet(o.Pending...)

	var b strings.Builder
	for _, row := range flat.Rows() {
		marker := " "
		if row.ID == o.Focus {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %s%s  %s\n", marker, strings.Repeat("  ", row.Depth), row.ID, nodeSummary(row.Node, pending.Has(row.ID)))
	}
	return b.String()
}

type pathOutput struct {
	Path []model.Node `json:"path"`
}

func (o pathOutput) Text() string {
	blocks := make([]string, 0, len(o.Path))
	for _, n := range o.Path {
		blocks = append(blocks, nodeBlock(n))
	}
	return strings.Join(blocks, "\n")
}

type nodeOutput struct {
	model.Node
}

func (o nodeOutput) Text() string { return nodeBlock(o.Node) }

type nodesOutput []model.Node

func (o nodesOutput) Text() string {
	blocks := make([]string, 0, len(o))
	for _, n := range o {
		blocks = append(blocks, nodeBlock(n))
	}
	return strings.Join(blocks, "\n")
}

func nodeSummary(n model.Node, pending bool) string {
	label := "[" + string(n.Message.Source) + "]"
	if n.IsEdited {
		label += "*"
	}
	switch {
	case pending:
		return label + " (generating)"
	case strings.TrimSpace(n.Message.Content) == "":
		return label + " (empty)"
	}
	preview := strings.Join(strings.Fields(n.Message.Content), " ")
	if r := []rune(preview); len(r) > previewWidth {
		preview = string(r[:previewWidth-1]) + "…"
	}
	return label + " " + preview
}

func nodeBlock(n model.Node) string {
	head := fmt.Sprintf("%s [%s]", n.ID, n.Message.Source)
	if n.IsEdited {
		head += " edited"
	}
	if n.Message.IsError() {
		head += " error"
	}
	body := strings.TrimRight(n.Message.Content, "\n")
	if body == "" {
		return head + "\n"
	}
	return head + "\n" + indent.String(body, 2) + "\n"
}
