package cli

import (
	"github.com/spf13/cobra"

	"homes-service/internal/database"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := database.Migrate(ctx, a.db); err != nil {
		return err
	}
	a.log.Info("schema up to date")
	return nil
}
