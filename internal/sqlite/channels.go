package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	insertChannelQuery = `INSERT INTO notification_channels (
    name,
    channel_type,
    config,
    enabled
) VALUES (?, ?, ?, ?)
RETURNING id, created_at, updated_at`

	selectChannelBase = `SELECT
    id,
    name,
    channel_type,
    config,
    enabled,
    created_at,
    updated_at
FROM notification_channels`

	updateChannelQuery = `UPDATE notification_channels
SET name = ?,
    channel_type = ?,
    config = ?,
    enabled = ?,
    updated_at = datetime('now')
WHERE id = ?`

	deleteChannelQuery = `DELETE FROM notification_channels WHERE id = ?`
)

// CreateNotificationChannel inserts a new delivery target.
func (db *DB) CreateNotificationChannel(ctx context.Context, channel *models.NotificationChannel) error {
	if channel == nil {
		return fmt.Errorf("channel payload is required")
	}

	configJSON, err := json.Marshal(configOrEmpty(channel.Config))
	if err != nil {
		return fmt.Errorf("failed to marshal channel config: %w", err)
	}

	row := db.writeDB.QueryRowContext(ctx, insertChannelQuery,
		channel.Name,
		string(channel.ChannelType),
		string(configJSON),
		boolToInt(channel.Enabled),
	)

	var (
		id        int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &createdAt, &updatedAt); err != nil {
		return fmt.Errorf("failed to insert notification channel: %w", err)
	}
	channel.ID = id
	channel.CreatedAt = createdAt
	channel.UpdatedAt = updatedAt
	return nil
}

// GetNotificationChannel retrieves a channel by id.
func (db *DB) GetNotificationChannel(ctx context.Context, channelID int64) (*models.NotificationChannel, error) {
	row := db.readDB.QueryRowContext(ctx, selectChannelBase+" WHERE id = ?", channelID)
	return scanChannel(row)
}

// ListNotificationChannels returns all configured channels.
func (db *DB) ListNotificationChannels(ctx context.Context) ([]*models.NotificationChannel, error) {
	rows, err := db.readDB.QueryContext(ctx, selectChannelBase+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list notification channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.NotificationChannel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification channels: %w", err)
	}
	return channels, nil
}

// UpdateNotificationChannel persists changes to an existing channel.
func (db *DB) UpdateNotificationChannel(ctx context.Context, channel *models.NotificationChannel) error {
	if channel == nil {
		return fmt.Errorf("channel payload is required")
	}

	configJSON, err := json.Marshal(configOrEmpty(channel.Config))
	if err != nil {
		return fmt.Errorf("failed to marshal channel config: %w", err)
	}

	res, err := db.writeDB.ExecContext(ctx, updateChannelQuery,
		channel.Name,
		string(channel.ChannelType),
		string(configJSON),
		boolToInt(channel.Enabled),
		channel.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification channel: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteNotificationChannel removes a channel. Rules referencing the id
// keep it; dispatch tolerates dangling references.
func (db *DB) DeleteNotificationChannel(ctx context.Context, channelID int64) error {
	res, err := db.writeDB.ExecContext(ctx, deleteChannelQuery, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete notification channel: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func configOrEmpty(config map[string]string) map[string]string {
	if config == nil {
		return map[string]string{}
	}
	return config
}

func scanChannel(scanner interface{ Scan(dest ...any) error }) (*models.NotificationChannel, error) {
	var (
		id          int64
		name        string
		channelType string
		configJSON  string
		enabled     int64
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := scanner.Scan(&id, &name, &channelType, &configJSON, &enabled, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan notification channel: %w", err)
	}

	var config map[string]string
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal channel config: %w", err)
		}
	}

	return &models.NotificationChannel{
		ID:          id,
		Name:        name,
		ChannelType: models.ChannelType(channelType),
		Config:      config,
		Enabled:     enabled == 1,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
