package alerts

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/rackwatch/rackwatch/pkg/models"
)

var (
	notificationsSent   = metrics.NewCounter("rackwatch_notifications_sent_total")
	notificationsFailed = metrics.NewCounter("rackwatch_notification_failures_total")
)

// Dispatcher fans one recorded alert out to the rule's configured
// channels. Delivery is best-effort: disabled or missing channels are
// skipped silently, failures are logged and counted, and nothing here can
// undo the history write that already happened.
type Dispatcher struct {
	channels ChannelStore
	senders  map[models.ChannelType]Sender
	timeout  time.Duration
	log      *slog.Logger
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Channels ChannelStore
	Senders  map[models.ChannelType]Sender
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		channels: opts.Channels,
		senders:  opts.Senders,
		timeout:  timeout,
		log:      logger.With("component", "alert_dispatcher"),
	}
}

// Dispatch delivers the history record to every resolvable, enabled
// channel of the rule. Channels send in parallel; each delivery gets a
// bounded timeout. Dispatch returns once all deliveries settle.
func (d *Dispatcher) Dispatch(ctx context.Context, rule *models.AlertRule, entry *models.AlertHistory) {
	if len(rule.NotificationChannels) == 0 {
		return
	}

	n := Notification{
		HistoryID:      entry.ID,
		RuleID:         rule.ID,
		RuleName:       rule.Name,
		Severity:       entry.Severity,
		Message:        entry.Message,
		ResourceType:   entry.ResourceType,
		ResourceID:     entry.ResourceID,
		ResourceName:   entry.ResourceName,
		ThresholdValue: entry.ThresholdValue,
		ActualValue:    entry.ActualValue,
		TriggeredAt:    entry.CreatedAt,
	}

	var wg sync.WaitGroup
	for _, channelID := range rule.NotificationChannels {
		channel, err := d.channels.GetNotificationChannel(ctx, channelID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) || errors.Is(err, models.ErrNotFound) {
				d.log.Debug("notification channel no longer exists, skipping", "channel_id", channelID, "rule_id", rule.ID)
			} else {
				d.log.Warn("failed to resolve notification channel", "channel_id", channelID, "rule_id", rule.ID, "error", err)
			}
			continue
		}
		if !channel.Enabled {
			d.log.Debug("notification channel disabled, skipping", "channel_id", channelID, "rule_id", rule.ID)
			continue
		}
		sender, ok := d.senders[channel.ChannelType]
		if !ok {
			d.log.Warn("no sender registered for channel type", "channel_type", channel.ChannelType, "channel_id", channelID)
			continue
		}

		wg.Add(1)
		go func(channel *models.NotificationChannel) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			if err := sender.Send(sendCtx, channel, n); err != nil {
				notificationsFailed.Inc()
				d.log.Warn("notification delivery failed",
					"rule_id", rule.ID, "history_id", entry.ID,
					"channel_id", channel.ID, "channel_type", channel.ChannelType,
					"error", err)
				return
			}
			notificationsSent.Inc()
		}(channel)
	}
	wg.Wait()
}
