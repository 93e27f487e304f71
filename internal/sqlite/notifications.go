package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	insertInAppNotificationQuery = `INSERT INTO in_app_notifications (
    history_id,
    channel_id,
    title,
    body
) VALUES (?, ?, ?, ?)
RETURNING id, created_at`

	selectInAppNotificationBase = `SELECT
    id,
    history_id,
    channel_id,
    title,
    body,
    read_at,
    created_at
FROM in_app_notifications`

	markNotificationReadQuery = `UPDATE in_app_notifications
SET read_at = datetime('now')
WHERE id = ? AND read_at IS NULL`
)

// InsertInAppNotification persists an in_app channel delivery.
func (db *DB) InsertInAppNotification(ctx context.Context, n *models.InAppNotification) error {
	if n == nil {
		return fmt.Errorf("notification payload is required")
	}
	row := db.writeDB.QueryRowContext(ctx, insertInAppNotificationQuery,
		n.HistoryID, n.ChannelID, n.Title, n.Body,
	)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert in-app notification: %w", err)
	}
	return nil
}

// ListInAppNotifications returns the newest notifications first.
func (db *DB) ListInAppNotifications(ctx context.Context, limit int) ([]*models.InAppNotification, error) {
	if limit <= 0 {
		limit = models.DefaultAlertHistoryLimit
	}
	rows, err := db.readDB.QueryContext(ctx, selectInAppNotificationBase+" ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-app notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.InAppNotification
	for rows.Next() {
		var (
			n      models.InAppNotification
			readAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.HistoryID, &n.ChannelID, &n.Title, &n.Body, &readAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan in-app notification: %w", err)
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating in-app notifications: %w", err)
	}
	return notifications, nil
}

// GetInAppNotification retrieves one notification by id.
func (db *DB) GetInAppNotification(ctx context.Context, notificationID int64) (*models.InAppNotification, error) {
	var (
		n      models.InAppNotification
		readAt sql.NullTime
	)
	row := db.readDB.QueryRowContext(ctx, selectInAppNotificationBase+" WHERE id = ?", notificationID)
	if err := row.Scan(&n.ID, &n.HistoryID, &n.ChannelID, &n.Title, &n.Body, &readAt, &n.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan in-app notification: %w", err)
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}

// MarkInAppNotificationRead stamps an unread notification.
func (db *DB) MarkInAppNotificationRead(ctx context.Context, notificationID int64) error {
	res, err := db.writeDB.ExecContext(ctx, markNotificationReadQuery, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
