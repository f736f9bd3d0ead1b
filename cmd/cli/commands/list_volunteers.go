package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// ListVolunteersCmd creates the listVolunteers command
func ListVolunteersCmd(app *AppContext) *cobra.Command {
	var backend, status string

	cmd := &cobra.Command{
		Use:   "listVolunteers",
		Short: "List volunteers stored in a backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := app.store(backend)
			if err != nil {
				return err
			}

			volunteers, err := services.ListVolunteers(app.Ctx, store, app.Logger, status)
			if err != nil {
				return fmt.Errorf("failed to list volunteers: %w", err)
			}

			printVolunteers(cmd.OutOrStdout(), volunteers)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Backend to read from (postgres or mongodb, default from config)")
	cmd.Flags().StringVar(&status, "status", "", "Only list volunteers with this status")
	return cmd
}

func printVolunteers(w io.Writer, volunteers []db.Volunteer) {
	fmt.Fprintf(w, "\nFound %d volunteers:\n\n", len(volunteers))
	for _, v := range volunteers {
		roleInfo := ""
		if v.Role == db.RoleAdmin {
			roleInfo = " [admin]"
		}
		fmt.Fprintf(w, "- %s (%d) - %s - %s%s\n",
			v.Name,
			v.ID,
			v.Status,
			v.Email,
			roleInfo,
		)
	}
}
