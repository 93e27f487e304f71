package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rackwatch/rackwatch/internal/app"
)

// evaluateCommand runs one evaluation pass and prints a summary. Useful
// for cron-driven setups and smoke-testing rule configuration.
func (a *App) evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "evaluate all enabled alert rules once and exit",
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
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = instance.Shutdown(shutdownCtx)
			}()

			result, err := instance.Engine.EvaluateAll(ctx)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}

			fmt.Printf("%s run %s finished in %s\n",
				logoStyle.Render("rackwatch"), mutedStyle.Render(result.RunID), result.Duration.Round(time.Millisecond))
			fmt.Printf("  rules evaluated: %d\n", len(result.Results))
			if len(result.Alerts) > 0 {
				fmt.Printf("  %s\n", errorStyle.Render(fmt.Sprintf("%d new alert(s) triggered", len(result.Alerts))))
				for _, alert := range result.Alerts {
					fmt.Printf("    [%s] %s\n", alert.Severity, alert.Message)
				}
			} else {
				fmt.Printf("  %s\n", successStyle.Render("no new alerts"))
			}
			for _, failure := range result.Failures() {
				fmt.Printf("  %s\n", errorStyle.Render(fmt.Sprintf("rule %q failed: %s", failure.RuleName, failure.Error)))
			}
			return nil
		},
	}
}
