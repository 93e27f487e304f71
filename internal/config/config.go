// Package config handles loading and merging Rackwatch configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	SQLite  SQLiteConfig  `koanf:"sqlite"`
	Logging LoggingConfig `koanf:"logging"`
	Alerts  AlertsConfig  `koanf:"alerts"`
}

// ServerConfig holds HTTP listener and auth token settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// AdminToken authorizes evaluation runs and mutations. APIToken grants
	// read-only access. Empty tokens disable the respective tier.
	AdminToken   string        `koanf:"admin_token"`
	APIToken     string        `koanf:"api_token"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// SQLiteConfig holds database settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// AlertsConfig holds alert engine and notification delivery settings.
type AlertsConfig struct {
	HistoryLimit        int           `koanf:"history_limit"`
	NotificationTimeout time.Duration `koanf:"notification_timeout"`

	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`
	SMTPSecurity string `koanf:"smtp_security"`

	TLSInsecureSkipVerify bool `koanf:"tls_insecure_skip_verify"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "rackwatch.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Alerts: AlertsConfig{
			HistoryLimit:        500,
			NotificationTimeout: 5 * time.Second,
			SMTPPort:            587,
			SMTPSecurity:        "starttls",
		},
	}
}

// Load reads configuration from an optional TOML file and RACKWATCH_*
// environment variables layered on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// RACKWATCH_SERVER__ADMIN_TOKEN -> server.admin_token
	if err := k.Load(env.Provider("RACKWATCH_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "RACKWATCH_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
