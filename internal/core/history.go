package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rackwatch/rackwatch/internal/sqlite"
	"github.com/rackwatch/rackwatch/pkg/models"
)

var (
	// ErrHistoryNotFound is returned when an alert history record cannot be located.
	ErrHistoryNotFound = errors.New("alert history record not found")
	// ErrAlreadyAcknowledged indicates the record was acknowledged previously.
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
	// ErrNotificationNotFound is returned when an in-app notification cannot be located.
	ErrNotificationNotFound = errors.New("notification not found")
)

// ListAlertHistory returns the most recent alert history records, newest
// first. A non-positive limit falls back to the default page size.
func ListAlertHistory(ctx context.Context, db *sqlite.DB, limit int) ([]*models.AlertHistory, error) {
	history, err := db.ListAlertHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert history: %w", err)
	}
	return history, nil
}

// AcknowledgeAlertHistory marks a history record as seen by an operator.
// It distinguishes a missing record from one already acknowledged so the
// API can report 404 versus 409.
func AcknowledgeAlertHistory(ctx context.Context, db *sqlite.DB, log *slog.Logger, historyID int64, acknowledgedBy string) (*models.AlertHistory, error) {
	existing, err := db.GetAlertHistory(ctx, historyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to get alert history: %w", err)
	}
	if existing.Acknowledged() {
		return nil, ErrAlreadyAcknowledged
	}

	if err := db.AcknowledgeAlertHistory(ctx, historyID, acknowledgedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with another acknowledger.
			return nil, ErrAlreadyAcknowledged
		}
		log.Error("failed to acknowledge alert", "history_id", historyID, "error", err)
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	updated, err := db.GetAlertHistory(ctx, historyID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload alert history: %w", err)
	}
	log.Info("alert acknowledged", "history_id", historyID, "acknowledged_by", acknowledgedBy)
	return updated, nil
}

// ListInAppNotifications returns the in-app notification feed, newest first.
func ListInAppNotifications(ctx context.Context, db *sqlite.DB, limit int) ([]*models.InAppNotification, error) {
	notifications, err := db.ListInAppNotifications(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkInAppNotificationRead marks a feed entry as read. Marking an
// already-read entry is a no-op success.
func MarkInAppNotificationRead(ctx context.Context, db *sqlite.DB, notificationID int64) error {
	err := db.MarkInAppNotificationRead(ctx, notificationID)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
		if _, getErr := db.GetInAppNotification(ctx, notificationID); getErr == nil {
			// Already read.
			return nil
		}
		return ErrNotificationNotFound
	}
	return fmt.Errorf("failed to mark notification read: %w", err)
}
