package cli

import (
	"strings"

	"loon-cli/internal/store"

	"github.com/spf13/cobra"
)

func newKeyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys stored in config.yaml",
	}
	cmd.AddCommand(newKeyAddCmd(app))
	cmd.AddCommand(newKeyRmCmd(app))
	return cmd
}

func newKeyAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "add <service> <key>",
		Aliases: []string{"set"},
		Short:   "Store an API key for a service",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := strings.TrimSpace(args[0])
			key := strings.TrimSpace(args[1])
			if service == "" || key == "" {
				return writeErr(cmd, errEmptyKeyArgs)
			}
			cfg, err := store.LoadFileConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.APIKeys[service] = key
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"service": service, "stored": true}})
		},
	}
}

func newKeyRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <service>",
		Aliases: []string{"remove"},
		Short:   "Forget the API key for a service",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := strings.TrimSpace(args[0])
			cfg, err := store.LoadFileConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, ok := cfg.APIKeys[service]; !ok {
				return writeErr(cmd, errNotFound("api key", service))
			}
			delete(cfg.APIKeys, service)
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"service": service, "stored": false}})
		},
	}
}
