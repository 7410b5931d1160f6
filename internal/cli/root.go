// Package cli wires configuration, storage and the HTTP server into the
// homes command.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCmd builds the homes command tree. Running it without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "homes",
		Short:         "homes-service - home listings API and application store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema and exit",
			RunE:  runMigrate,
		},
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
