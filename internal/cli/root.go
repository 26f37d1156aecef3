package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"loon-cli/internal/format"
	"loon-cli/internal/session"
	"loon-cli/internal/store"
	"loon-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	Verbose    bool

	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "loon",
		Short:        "Loon: branching conversations with language models",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  loon

  # Scriptable commands
  loon show --format text
  loon reply root "What is a monad?"
  loon complete <node-id> --model go --count 3
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal and sets up its own file logger.
		if cmd.Parent() == nil {
			return nil
		}
		log, err := newCLILogger(app.Verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		app.log = log
		return nil
	}

	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("LOON_DIR", ""), "Path to store dir (default: the config dir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("LOON_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging on stderr")

	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newReplyCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newCompleteCmd(app))
	cmd.AddCommand(newKeyCmd(app))
	cmd.AddCommand(newResetCmd(app))

	return cmd
}

func newCLILogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// newFileLogger writes to path so log lines never land on the TUI's screen.
func newFileLogger(path string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func runTUI(ctx context.Context, app *App) error {
	s, err := resolveStore(app)
	if err != nil {
		return err
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	log, err := newFileLogger(s.LogPath(), app.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	app.log = log

	sess, err := openSession(ctx, app, s)
	if err != nil {
		return err
	}
	return tui.Run(ctx, sess)
}

func resolveStore(app *App) (store.Store, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return store.Store{}, err
		}
		dir = d
		app.Dir = dir
	}
	return store.Store{Dir: dir}, nil
}

func openSession(ctx context.Context, app *App, s store.Store) (*session.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	log := app.log
	if log == nil {
		log = zap.NewNop()
	}
	return session.Open(ctx, session.Options{
		Config:     cfg,
		Persister:  s,
		Logger:     log,
		SaveConfig: store.SaveConfig,
	})
}

func loadSession(cmd *cobra.Command, app *App) (*session.Session, store.Store, error) {
	s, err := resolveStore(app)
	if err != nil {
		return nil, s, err
	}
	sess, err := openSession(cmd.Context(), app, s)
	if err != nil {
		return nil, s, err
	}
	return sess, s, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
