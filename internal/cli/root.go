// Package cli wires the listly commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/CarlosNatanauan/listly/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
}

// NewRootCommand creates the root command for the listly binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "listly",
		Short: "Listly notes and tasks API",
		Long:  "Listly serves per-user notes and tasks over HTTP and pushes changes to every open device over WebSocket.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(opts.EnvFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading LISTLY_* variables")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
