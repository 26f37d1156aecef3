package cli

import (
	"os"
	"os/signal"
	"strings"

	"loon-cli/internal/request"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCompleteCmd(app *App) *cobra.Command {
	var card string
	var count int

	cmd := &cobra.Command{
		Use:   "complete <parent-id>",
		Short: "Ask a model for replies under a node and wait for them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID := strings.TrimSpace(args[0])
			sess, _, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			plan, err := sess.RequestCompletions(parentID, card, count)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			app.log.Debug("requesting completions",
				zap.String("parent", parentID),
				zap.String("card", card),
				zap.Int("count", len(plan.Jobs)))
			runErr := sess.RunJobs(ctx, plan.Jobs)

			st := sess.State()
			out := make(nodesOutput, 0, len(plan.Jobs))
			for _, j := range plan.Jobs {
				if n, ok := st.Loom.Node(j.NodeID); ok {
					out = append(out, n)
				}
			}
			if err := writeOut(cmd, app, map[string]any{"data": out, "meta": jobMeta(plan.Jobs)}); err != nil {
				return err
			}
			if runErr != nil {
				return writeErr(cmd, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&card, "model", "go", "Model card name (see config.yaml modelCards)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of completions (default from config)")
	return cmd
}

func jobMeta(jobs []request.Job) map[string]any {
	meta := map[string]any{"requested": len(jobs)}
	if len(jobs) > 0 {
		card := jobs[0].Card
		meta["model"] = card.Model
		meta["format"] = card.Format
		meta["contextLength"] = len(jobs[0].Context)
	}
	return meta
}
