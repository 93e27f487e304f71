// Package app assembles configuration, storage, the alert engine, and the
// HTTP server into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rackwatch/rackwatch/internal/alerts"
	"github.com/rackwatch/rackwatch/internal/config"
	"github.com/rackwatch/rackwatch/internal/server"
	"github.com/rackwatch/rackwatch/internal/sqlite"
	"github.com/rackwatch/rackwatch/pkg/logger"
	"github.com/rackwatch/rackwatch/pkg/models"
)

// App holds the application's long-lived components.
type App struct {
	Config *config.Config
	SQLite *sqlite.DB
	Engine *alerts.Engine
	Logger *slog.Logger

	server  *server.Server
	Version string
}

// Options contains configuration needed when creating a new App instance.
type Options struct {
	ConfigPath string
	Version    string
}

// New loads configuration and builds the application shell. Components
// that touch the filesystem or network come up in Initialize.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &App{
		Config:  cfg,
		Logger:  logger.New(cfg.Logging.Level == "debug"),
		Version: opts.Version,
	}, nil
}

// Initialize opens the database, seeds runtime settings on first boot, and
// wires the alert engine and HTTP server.
func (a *App) Initialize(ctx context.Context) error {
	var err error

	a.SQLite, err = sqlite.New(sqlite.Options{
		Config: a.Config.SQLite,
		Logger: a.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sqlite: %w", err)
	}

	if err := a.seedSystemSettings(ctx); err != nil {
		// Migration defaults cover missing settings; seeding is best-effort.
		a.Logger.Warn("failed to seed system settings from config", "error", err)
	}

	// Database settings override the static file for delivery tuning.
	a.Config = config.LoadRuntimeConfig(ctx, a.Config, a.SQLite)
	a.Logger.Info("runtime configuration loaded")

	a.Engine = a.buildEngine()

	a.server = server.New(server.Options{
		Config:  a.Config,
		DB:      a.SQLite,
		Engine:  a.Engine,
		Logger:  a.Logger,
		Version: a.Version,
	})
	return nil
}

// buildEngine wires evaluators, senders, and the dispatcher around the
// sqlite store.
func (a *App) buildEngine() *alerts.Engine {
	senders := map[models.ChannelType]alerts.Sender{
		models.ChannelSlackWebhook: alerts.NewWebhookSender(alerts.WebhookSenderOptions{
			Timeout:       a.Config.Alerts.NotificationTimeout,
			SkipTLSVerify: a.Config.Alerts.TLSInsecureSkipVerify,
			Logger:        a.Logger,
		}),
		models.ChannelEmail: alerts.NewDynamicEmailSender(a.SQLite, a.Logger),
		models.ChannelInApp: alerts.NewInAppSender(a.SQLite, a.Logger),
	}

	dispatcher := alerts.NewDispatcher(alerts.DispatcherOptions{
		Channels: a.SQLite,
		Senders:  senders,
		Timeout:  a.Config.Alerts.NotificationTimeout,
		Logger:   a.Logger,
	})

	return alerts.NewEngine(alerts.EngineOptions{
		Rules:        a.SQLite,
		History:      a.SQLite,
		Evaluators:   alerts.DefaultEvaluators(a.SQLite, a.SQLite, a.SQLite),
		Dispatcher:   dispatcher,
		HistoryLimit: a.Config.Alerts.HistoryLimit,
		Logger:       a.Logger,
	})
}

// Start begins serving HTTP. It blocks until Shutdown.
func (a *App) Start() error {
	if a.server == nil {
		return fmt.Errorf("server not initialized")
	}
	return a.server.Start()
}

// Shutdown stops the HTTP server and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	if a.server != nil {
		serverCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(serverCtx); err != nil {
			a.Logger.Error("error shutting down server", "error", err)
		}
	}

	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			a.Logger.Error("error closing sqlite", "error", err)
		}
	}

	a.Logger.Info("application shutdown complete")
	return nil
}

// seedSystemSettings populates system_settings from the static config on
// first boot. After seeding, the database is the source of truth for
// delivery settings.
func (a *App) seedSystemSettings(ctx context.Context) error {
	count, err := a.SQLite.CountSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing settings: %w", err)
	}
	if count > 0 {
		return nil
	}

	a.Logger.Info("seeding system settings (first boot)")

	seeds := []struct {
		key         string
		value       string
		valueType   string
		description string
		isSensitive bool
	}{
		{"alerts.history_limit", fmt.Sprintf("%d", a.Config.Alerts.HistoryLimit), "number", "Maximum number of alert history entries to keep", false},
		{"alerts.notification_timeout", a.Config.Alerts.NotificationTimeout.String(), "duration", "Per-channel notification delivery timeout", false},
		{"alerts.smtp_host", a.Config.Alerts.SMTPHost, "string", "SMTP host for alert emails", false},
		{"alerts.smtp_port", fmt.Sprintf("%d", a.Config.Alerts.SMTPPort), "number", "SMTP port for alert emails", false},
		{"alerts.smtp_username", a.Config.Alerts.SMTPUsername, "string", "SMTP username for alert emails", false},
		{"alerts.smtp_password", a.Config.Alerts.SMTPPassword, "string", "SMTP password for alert emails", true},
		{"alerts.smtp_from", a.Config.Alerts.SMTPFrom, "string", "From address for alert emails", false},
		{"alerts.smtp_security", a.Config.Alerts.SMTPSecurity, "string", "SMTP transport security: none, starttls, or tls", false},
		{"alerts.tls_insecure_skip_verify", fmt.Sprintf("%t", a.Config.Alerts.TLSInsecureSkipVerify), "boolean", "Skip TLS certificate verification on deliveries", false},
	}
	for _, s := range seeds {
		if err := a.SQLite.UpsertSetting(ctx, s.key, s.value, s.valueType, "alerts", s.description, s.isSensitive); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", s.key, err)
		}
	}
	return nil
}
