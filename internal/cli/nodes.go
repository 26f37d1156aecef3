package cli

import (
	"errors"
	"fmt"
	"strings"

	"loon-cli/internal/model"
	"loon-cli/internal/mutate"

	"github.com/spf13/cobra"
)

func newShowCmd(app *App) *cobra.Command {
	var pathOnly bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the conversation tree (or the current path)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st := sess.State()
			if pathOnly {
				out := pathOutput{Path: make([]model.Node, 0, len(st.View.CurrentPath))}
				for _, id := range st.View.CurrentPath {
					if n, ok := st.Loom.Node(id); ok {
						out.Path = append(out.Path, n)
					}
				}
				return writeOut(cmd, app, map[string]any{"data": out})
			}
			out := treeOutput{
				Root:    st.Loom.Root,
				Focus:   st.Indicated(),
				Nodes:   st.Loom.Nodes(),
				Pending: st.Pending.Items(),
				loom:    st.Loom,
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().BoolVar(&pathOnly, "path", false, "Only the nodes on the current path, root first")
	return cmd
}

func newReplyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply <parent-id> <text>",
		Short: "Add a human message under a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID := strings.TrimSpace(args[0])
			sess, _, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			before := sess.State()
			if _, err := requireNode(before, parentID); err != nil {
				return writeErr(cmd, err)
			}
			if before.IsPending(parentID) {
				return writeErr(cmd, fmt.Errorf("node %s is still waiting for a completion", parentID))
			}

			st := sess.Dispatch(mutate.CreateChildNode{ParentID: parentID})
			if st.Loom.SameAs(before.Loom) {
				return writeErr(cmd, errors.New("could not create a reply"))
			}
			id := st.View.Focus.Node
			st = sess.Dispatch(mutate.EditNode{ID: id, Content: args[1]})
			n, _ := st.Loom.Node(id)
			return writeOut(cmd, app, map[string]any{"data": nodeOutput{n}})
		},
	}
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <node-id> <text>",
		Short: "Replace a node's text (nodes with replies are forked into a new sibling)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			sess, _, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			before := sess.State()
			orig, err := requireNode(before, id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if before.IsPending(id) {
				return writeErr(cmd, fmt.Errorf("node %s is still waiting for a completion", id))
			}

			st := sess.Dispatch(mutate.EditNode{ID: id, Content: args[1]})
			if st.Loom.SameAs(before.Loom) {
				return writeErr(cmd, fmt.Errorf("cannot edit node %s", id))
			}
			forked := orig.HasChildren()
			resultID := id
			if forked {
				resultID = st.View.Focus.Node
			}
			n, _ := st.Loom.Node(resultID)
			return writeOut(cmd, app, map[string]any{
				"data": nodeOutput{n},
				"meta": map[string]any{"forked": forked, "editedId": id},
			})
		},
	}
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <node-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a node without replies",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			sess, _, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			before := sess.State()
			st := sess.Dispatch(mutate.DeleteNode{ID: id})
			if st.Loom.SameAs(before.Loom) {
				return writeErr(cmd, errDeleteRefused(before, id))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": id}})
		},
	}
	return cmd
}
