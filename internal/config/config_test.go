package config

import (
	"context"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Alerts.NotificationTimeout != 5*time.Second {
		t.Errorf("default notification timeout = %s", cfg.Alerts.NotificationTimeout)
	}
	if cfg.Alerts.SMTPSecurity != "starttls" {
		t.Errorf("default smtp security = %q", cfg.Alerts.SMTPSecurity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/rackwatch.toml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SQLite.Path != "rackwatch.db" {
		t.Errorf("sqlite path = %q", cfg.SQLite.Path)
	}
}

// fakeSettings returns canned values for a fixed set of keys and the
// provided default for everything else.
type fakeSettings struct {
	strings   map[string]string
	ints      map[string]int
	bools     map[string]bool
	durations map[string]time.Duration
}

func (f *fakeSettings) GetSettingWithDefault(ctx context.Context, key, defaultValue string) string {
	if v, ok := f.strings[key]; ok {
		return v
	}
	return defaultValue
}

func (f *fakeSettings) GetIntSetting(ctx context.Context, key string, defaultValue int) int {
	if v, ok := f.ints[key]; ok {
		return v
	}
	return defaultValue
}

func (f *fakeSettings) GetBoolSetting(ctx context.Context, key string, defaultValue bool) bool {
	if v, ok := f.bools[key]; ok {
		return v
	}
	return defaultValue
}

func (f *fakeSettings) GetDurationSetting(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	if v, ok := f.durations[key]; ok {
		return v
	}
	return defaultValue
}

func TestLoadRuntimeConfig(t *testing.T) {
	static := Default()
	static.Alerts.SMTPHost = "smtp.static.example"

	store := &fakeSettings{
		strings:   map[string]string{"alerts.smtp_host": "smtp.runtime.example"},
		ints:      map[string]int{"alerts.history_limit": 200},
		durations: map[string]time.Duration{"alerts.notification_timeout": 10 * time.Second},
	}

	merged := LoadRuntimeConfig(context.Background(), static, store)
	if merged.Alerts.SMTPHost != "smtp.runtime.example" {
		t.Errorf("smtp host = %q, database value should win", merged.Alerts.SMTPHost)
	}
	if merged.Alerts.HistoryLimit != 200 {
		t.Errorf("history limit = %d, want 200", merged.Alerts.HistoryLimit)
	}
	if merged.Alerts.NotificationTimeout != 10*time.Second {
		t.Errorf("notification timeout = %s, want 10s", merged.Alerts.NotificationTimeout)
	}
	// Settings absent from the database keep their static values.
	if merged.Alerts.SMTPPort != static.Alerts.SMTPPort {
		t.Errorf("smtp port changed unexpectedly: %d", merged.Alerts.SMTPPort)
	}
	// The static config must not be mutated.
	if static.Alerts.SMTPHost != "smtp.static.example" {
		t.Errorf("static config mutated: %q", static.Alerts.SMTPHost)
	}
}

func TestLoadRuntimeConfigNilStore(t *testing.T) {
	static := Default()
	merged := LoadRuntimeConfig(context.Background(), static, nil)
	if merged.Alerts.HistoryLimit != static.Alerts.HistoryLimit {
		t.Errorf("nil store should return static values")
	}
}
