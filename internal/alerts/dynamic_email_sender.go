package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// SettingsReader exposes the runtime settings the dynamic sender reads.
type SettingsReader interface {
	GetSettingWithDefault(ctx context.Context, key, defaultValue string) string
	GetIntSetting(ctx context.Context, key string, defaultValue int) int
	GetBoolSetting(ctx context.Context, key string, defaultValue bool) bool
	GetDurationSetting(ctx context.Context, key string, defaultValue time.Duration) time.Duration
}

// DynamicEmailSender builds an EmailSender per delivery from the settings
// store, so SMTP credentials edited at runtime take effect without a
// restart.
type DynamicEmailSender struct {
	settings SettingsReader
	logger   *slog.Logger
}

// NewDynamicEmailSender constructs the settings-backed email sender.
func NewDynamicEmailSender(settings SettingsReader, logger *slog.Logger) *DynamicEmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamicEmailSender{
		settings: settings,
		logger:   logger.With("component", "dynamic_email_sender"),
	}
}

// Send resolves current SMTP settings and delivers through a fresh sender.
func (d *DynamicEmailSender) Send(ctx context.Context, channel *models.NotificationChannel, n Notification) error {
	opts := EmailSenderOptions{
		Host:          d.settings.GetSettingWithDefault(ctx, "alerts.smtp_host", ""),
		Port:          d.settings.GetIntSetting(ctx, "alerts.smtp_port", 587),
		Username:      d.settings.GetSettingWithDefault(ctx, "alerts.smtp_username", ""),
		Password:      d.settings.GetSettingWithDefault(ctx, "alerts.smtp_password", ""),
		From:          d.settings.GetSettingWithDefault(ctx, "alerts.smtp_from", ""),
		Security:      d.settings.GetSettingWithDefault(ctx, "alerts.smtp_security", "starttls"),
		Timeout:       d.settings.GetDurationSetting(ctx, "alerts.notification_timeout", 5*time.Second),
		SkipTLSVerify: d.settings.GetBoolSetting(ctx, "alerts.tls_insecure_skip_verify", false),
		Logger:        d.logger,
	}
	sender := NewEmailSender(opts)
	return sender.Send(ctx, channel, n)
}
