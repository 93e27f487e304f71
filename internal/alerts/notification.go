package alerts

import (
	"context"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// Notification is the fully resolved payload handed to senders: the
// history record's snapshot fields plus rule identity for display.
type Notification struct {
	HistoryID      int64
	RuleID         int64
	RuleName       string
	Severity       models.AlertSeverity
	Message        string
	ResourceType   string
	ResourceID     int64
	ResourceName   string
	ThresholdValue string
	ActualValue    string
	TriggeredAt    time.Time
}

// Sender delivers a notification to one channel. Implementations are keyed
// by channel type in the dispatcher; delivery failures are logged by the
// dispatcher, never surfaced to the evaluation result.
type Sender interface {
	Send(ctx context.Context, channel *models.NotificationChannel, n Notification) error
}
