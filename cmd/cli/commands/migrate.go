package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL migrations and MongoDB indexes for every configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Postgres != nil {
				app.Logger.Info("Running PostgreSQL migrations")
				if err := app.Postgres.RunMigrations(app.Ctx); err != nil {
					return err
				}
				fmt.Println("✓ PostgreSQL migrations applied")
			}

			if app.MongoDB != nil {
				app.Logger.Info("Ensuring MongoDB schema")
				if err := app.MongoDB.EnsureSchema(app.Ctx); err != nil {
					return err
				}
				fmt.Println("✓ MongoDB indexes and counters ready")
			}

			return nil
		},
	}
}
