package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rackwatch/rackwatch/internal/app"
)

// serveCommand runs the HTTP API server until interrupted.
func (a *App) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the Rackwatch API server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			instance, err := app.New(app.Options{
				ConfigPath: a.ConfigPath,
				Version:    a.Version,
			})
			if err != nil {
				return err
			}
			if err := instance.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- instance.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return instance.Shutdown(shutdownCtx)
			}
		},
	}
}
