package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// PingCmd creates the ping command
func PingCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to every configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pingAll(app.Ctx, app.Registry, app.Logger, cmd.OutOrStdout())
		},
	}
}

// pingAll pings each backend and reports the first failure after checking all of them
func pingAll(ctx context.Context, registry *db.Registry, logger *zap.Logger, out io.Writer) error {
	var failed error
	for _, b := range registry.Backends() {
		database, err := registry.For(b)
		if err != nil {
			return err
		}

		start := time.Now()
		err = database.Ping(ctx)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("Ping failed", zap.String("backend", string(b)), zap.Error(err))
			fmt.Fprintf(out, "✗ %s: %v\n", b, err)
			if failed == nil {
				failed = fmt.Errorf("%s unreachable: %w", b, err)
			}
			continue
		}
		fmt.Fprintf(out, "✓ %s (%s)\n", b, elapsed.Round(time.Millisecond))
	}
	return failed
}
