package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// CreateAdminCmd creates the create-admin command
func CreateAdminCmd(app *AppContext) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "create-admin <name> <email> <password>",
		Short: "Create an admin account, or promote an existing one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := schemas.RegisterRequest{Name: args[0], Email: args[1], Password: args[2]}
			if err := schemas.Validate(&req); err != nil {
				return err
			}

			b, store, err := app.store(backend)
			if err != nil {
				return err
			}

			v, err := services.EnsureAdmin(app.Ctx, store, app.Logger, req.Name, req.Email, req.Password)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Admin ready on %s\n\n", b)
			fmt.Printf("Volunteer ID: %d\n", v.ID)
			fmt.Printf("Name:         %s\n", v.Name)
			fmt.Printf("Email:        %s\n\n", v.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Backend to write to (postgres or mongodb, default from config)")
	return cmd
}
