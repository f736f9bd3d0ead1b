package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hub/pkg/api"
	"github.com/jakechorley/volunteer-hub/pkg/auth"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := auth.NewSigner(app.Cfg.Auth.JWTSecret, app.Cfg.Auth.TokenTTL)
			if err != nil {
				return fmt.Errorf("failed to create token signer: %w", err)
			}

			proxies, err := api.ParseTrustedProxies(app.Cfg.HTTP.TrustedProxies)
			if err != nil {
				return err
			}

			server := api.NewServer(app.Registry, signer, app.Logger, api.Options{
				CookieSecure:    app.Cfg.Auth.CookieSecure,
				RequestTimeout:  app.Cfg.HTTP.RequestTimeout,
				LoginPerMinute:  app.Cfg.HTTP.LoginPerMinute,
				LoginBurst:      app.Cfg.HTTP.LoginBurst,
				ShutdownTimeout: app.Cfg.HTTP.ShutdownTimeout,
				TrustedProxies:  proxies,
			})

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.Run(ctx, app.Cfg.HTTP.ListenAddr); err != nil && err != context.Canceled {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		},
	}
}
