package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rackwatch/rackwatch/internal/sqlite"
	"github.com/rackwatch/rackwatch/pkg/models"
)

var (
	// ErrChannelNotFound is returned when a notification channel cannot be located.
	ErrChannelNotFound = errors.New("notification channel not found")
	// ErrInvalidChannelConfiguration indicates the request payload failed validation.
	ErrInvalidChannelConfiguration = errors.New("invalid notification channel configuration")
)

func validateChannel(channelType models.ChannelType, config map[string]string) error {
	switch channelType {
	case models.ChannelSlackWebhook:
		url := strings.TrimSpace(config["webhook_url"])
		if url == "" {
			return fmt.Errorf("slack_webhook channels require config.webhook_url")
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("config.webhook_url must be an http(s) URL")
		}
	case models.ChannelEmail:
		if strings.TrimSpace(config["recipients"]) == "" {
			return fmt.Errorf("email channels require config.recipients (comma separated)")
		}
	case models.ChannelInApp:
		// No configuration needed.
	default:
		return fmt.Errorf("invalid channel_type %q", channelType)
	}
	return nil
}

// CreateChannel validates and persists a new notification channel.
func CreateChannel(ctx context.Context, db *sqlite.DB, log *slog.Logger, req *models.CreateChannelRequest) (*models.NotificationChannel, error) {
	if req == nil {
		return nil, ErrInvalidChannelConfiguration
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidChannelConfiguration)
	}
	if err := validateChannel(req.ChannelType, req.Config); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChannelConfiguration, err)
	}

	channel := &models.NotificationChannel{
		Name:        strings.TrimSpace(req.Name),
		ChannelType: req.ChannelType,
		Config:      req.Config,
		Enabled:     req.Enabled,
	}
	if err := db.CreateNotificationChannel(ctx, channel); err != nil {
		log.Error("failed to create notification channel", "error", err)
		return nil, fmt.Errorf("failed to create notification channel: %w", err)
	}
	log.Info("notification channel created", "channel_id", channel.ID, "channel_type", channel.ChannelType)
	return channel, nil
}

// GetChannel retrieves a single channel by id.
func GetChannel(ctx context.Context, db *sqlite.DB, channelID int64) (*models.NotificationChannel, error) {
	channel, err := db.GetNotificationChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to get notification channel: %w", err)
	}
	return channel, nil
}

// ListChannels returns all configured channels.
func ListChannels(ctx context.Context, db *sqlite.DB) ([]*models.NotificationChannel, error) {
	channels, err := db.ListNotificationChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification channels: %w", err)
	}
	return channels, nil
}

// UpdateChannel applies a partial update to an existing channel.
func UpdateChannel(ctx context.Context, db *sqlite.DB, log *slog.Logger, channelID int64, req *models.UpdateChannelRequest) (*models.NotificationChannel, error) {
	if req == nil {
		return nil, ErrInvalidChannelConfiguration
	}

	existing, err := GetChannel(ctx, db, channelID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidChannelConfiguration)
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.ChannelType != nil {
		existing.ChannelType = *req.ChannelType
	}
	if req.Config != nil {
		existing.Config = *req.Config
	}
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if err := validateChannel(existing.ChannelType, existing.Config); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChannelConfiguration, err)
	}

	if err := db.UpdateNotificationChannel(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		log.Error("failed to update notification channel", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("failed to update notification channel: %w", err)
	}
	return existing, nil
}

// DeleteChannel removes a channel. Rules that still reference its id keep
// the dangling reference; delivery skips it silently.
func DeleteChannel(ctx context.Context, db *sqlite.DB, log *slog.Logger, channelID int64) error {
	if err := db.DeleteNotificationChannel(ctx, channelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return ErrChannelNotFound
		}
		log.Error("failed to delete notification channel", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to delete notification channel: %w", err)
	}
	log.Info("notification channel deleted", "channel_id", channelID)
	return nil
}
