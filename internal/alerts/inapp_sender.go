package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// InAppStore persists in-app notifications.
type InAppStore interface {
	InsertInAppNotification(ctx context.Context, n *models.InAppNotification) error
}

// InAppSender records deliveries as rows the notification feed serves.
type InAppSender struct {
	store  InAppStore
	logger *slog.Logger
}

// NewInAppSender constructs the in_app channel sender.
func NewInAppSender(store InAppStore, logger *slog.Logger) *InAppSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &InAppSender{store: store, logger: logger.With("component", "alert_inapp_sender")}
}

// Send writes one notification row for the history record.
func (s *InAppSender) Send(ctx context.Context, channel *models.NotificationChannel, n Notification) error {
	record := &models.InAppNotification{
		HistoryID: n.HistoryID,
		ChannelID: channel.ID,
		Title:     fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Severity)), n.RuleName),
		Body:      n.Message,
	}
	if err := s.store.InsertInAppNotification(ctx, record); err != nil {
		return fmt.Errorf("failed to store in-app notification: %w", err)
	}
	return nil
}
