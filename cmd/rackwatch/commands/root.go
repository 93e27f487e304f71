// Package commands provides the CLI command definitions for Rackwatch.
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Styles for CLI output
var (
	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2563EB")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// App holds the shared CLI state
type App struct {
	ConfigPath string
	Version    string
	Commit     string
	Date       string
}

// New creates the root CLI command with all subcommands
func New(version, commit, date string) *cli.Command {
	app := &App{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	return &cli.Command{
		Name:    "rackwatch",
		Usage:   "alert rule evaluation and notification engine for data-center inventory",
		Version: version,
		Description: `Rackwatch evaluates alert rules against live inventory data: power
   feed utilization, device warranty expiry, and rack capacity. Triggered
   alerts are recorded and fanned out to Slack, email, and in-app channels.

   Use 'rackwatch serve' to run the API server or 'rackwatch evaluate' for
   a one-shot evaluation run.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("RACKWATCH_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			if cmd.Bool("no-color") {
				log.SetStyles(log.DefaultStyles())
				lipgloss.SetHasDarkBackground(false)
			}
			app.ConfigPath = cmd.String("config")
			return ctx, nil
		},
		Commands: []*cli.Command{
			app.serveCommand(),
			app.evaluateCommand(),
			app.seedCommand(),
			app.versionCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
	}
}

// versionCommand shows version information
func (a *App) versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "show version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("%s version %s\n", logoStyle.Render("rackwatch"), a.Version)
			fmt.Printf("  commit: %s\n", mutedStyle.Render(a.Commit))
			fmt.Printf("  built:  %s\n", mutedStyle.Render(a.Date))
			return nil
		},
	}
}
