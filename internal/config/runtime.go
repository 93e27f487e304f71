package config

import (
	"context"
	"time"
)

// SettingsStore defines the interface for retrieving settings persisted in
// the database.
type SettingsStore interface {
	GetSettingWithDefault(ctx context.Context, key, defaultValue string) string
	GetBoolSetting(ctx context.Context, key string, defaultValue bool) bool
	GetIntSetting(ctx context.Context, key string, defaultValue int) int
	GetDurationSetting(ctx context.Context, key string, defaultValue time.Duration) time.Duration
}

// LoadRuntimeConfig merges database-held settings over the static config.
// SMTP credentials and delivery tuning are operator-editable at runtime;
// listener and database settings stay static.
func LoadRuntimeConfig(ctx context.Context, staticConfig *Config, store SettingsStore) *Config {
	cfg := *staticConfig
	if store == nil {
		return &cfg
	}

	cfg.Alerts.HistoryLimit = store.GetIntSetting(ctx, "alerts.history_limit", cfg.Alerts.HistoryLimit)
	cfg.Alerts.NotificationTimeout = store.GetDurationSetting(ctx, "alerts.notification_timeout", cfg.Alerts.NotificationTimeout)
	cfg.Alerts.SMTPHost = store.GetSettingWithDefault(ctx, "alerts.smtp_host", cfg.Alerts.SMTPHost)
	cfg.Alerts.SMTPPort = store.GetIntSetting(ctx, "alerts.smtp_port", cfg.Alerts.SMTPPort)
	cfg.Alerts.SMTPUsername = store.GetSettingWithDefault(ctx, "alerts.smtp_username", cfg.Alerts.SMTPUsername)
	cfg.Alerts.SMTPPassword = store.GetSettingWithDefault(ctx, "alerts.smtp_password", cfg.Alerts.SMTPPassword)
	cfg.Alerts.SMTPFrom = store.GetSettingWithDefault(ctx, "alerts.smtp_from", cfg.Alerts.SMTPFrom)
	cfg.Alerts.SMTPSecurity = store.GetSettingWithDefault(ctx, "alerts.smtp_security", cfg.Alerts.SMTPSecurity)
	cfg.Alerts.TLSInsecureSkipVerify = store.GetBoolSetting(ctx, "alerts.tls_insecure_skip_verify", cfg.Alerts.TLSInsecureSkipVerify)

	return &cfg
}
