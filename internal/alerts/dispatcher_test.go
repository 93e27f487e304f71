package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

type fakeChannelStore struct {
	channels map[int64]*models.NotificationChannel
}

func (f *fakeChannelStore) GetNotificationChannel(ctx context.Context, channelID int64) (*models.NotificationChannel, error) {
	channel, ok := f.channels[channelID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return channel, nil
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []Notification
	err   error
	delay time.Duration
}

func (r *recordingSender) Send(ctx context.Context, channel *models.NotificationChannel, n Notification) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func dispatchEntry() (*models.AlertRule, *models.AlertHistory) {
	ruleID := int64(1)
	rule := &models.AlertRule{
		ID:                   1,
		Name:                 "power usage",
		Severity:             models.SeverityCritical,
		NotificationChannels: []int64{10, 11, 12},
	}
	entry := &models.AlertHistory{
		ID:             99,
		RuleID:         &ruleID,
		Severity:       models.SeverityCritical,
		Message:        "feed-a at 93.8% utilization",
		ResourceType:   ResourcePowerFeed,
		ResourceID:     1,
		ResourceName:   "feed-a",
		ThresholdValue: "90",
		ActualValue:    "93.75",
		CreatedAt:      time.Now(),
	}
	return rule, entry
}

func TestDispatcherSkipsMissingAndDisabledChannels(t *testing.T) {
	// Channel 10 exists and is enabled, 11 is disabled, 12 does not exist.
	store := &fakeChannelStore{channels: map[int64]*models.NotificationChannel{
		10: {ID: 10, ChannelType: models.ChannelInApp, Enabled: true},
		11: {ID: 11, ChannelType: models.ChannelInApp, Enabled: false},
	}}
	sender := &recordingSender{}
	dispatcher := NewDispatcher(DispatcherOptions{
		Channels: store,
		Senders:  map[models.ChannelType]Sender{models.ChannelInApp: sender},
	})

	rule, entry := dispatchEntry()
	dispatcher.Dispatch(context.Background(), rule, entry)

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", len(sender.sent))
	}
	n := sender.sent[0]
	if n.HistoryID != entry.ID || n.Message != entry.Message {
		t.Errorf("unexpected notification payload: %+v", n)
	}
}

func TestDispatcherSkipsUnregisteredSenderType(t *testing.T) {
	store := &fakeChannelStore{channels: map[int64]*models.NotificationChannel{
		10: {ID: 10, ChannelType: models.ChannelEmail, Enabled: true},
	}}
	dispatcher := NewDispatcher(DispatcherOptions{
		Channels: store,
		Senders:  map[models.ChannelType]Sender{},
	})

	rule, entry := dispatchEntry()
	rule.NotificationChannels = []int64{10}
	// Must return without panicking or blocking.
	dispatcher.Dispatch(context.Background(), rule, entry)
}

func TestDispatcherNoChannelsConfigured(t *testing.T) {
	dispatcher := NewDispatcher(DispatcherOptions{Channels: &fakeChannelStore{}})
	rule, entry := dispatchEntry()
	rule.NotificationChannels = nil
	dispatcher.Dispatch(context.Background(), rule, entry)
}

func TestDispatcherDeliversInParallel(t *testing.T) {
	store := &fakeChannelStore{channels: map[int64]*models.NotificationChannel{
		10: {ID: 10, ChannelType: models.ChannelInApp, Enabled: true},
		11: {ID: 11, ChannelType: models.ChannelInApp, Enabled: true},
		12: {ID: 12, ChannelType: models.ChannelInApp, Enabled: true},
	}}
	sender := &recordingSender{delay: 50 * time.Millisecond}
	dispatcher := NewDispatcher(DispatcherOptions{
		Channels: store,
		Senders:  map[models.ChannelType]Sender{models.ChannelInApp: sender},
		Timeout:  time.Second,
	})

	rule, entry := dispatchEntry()
	start := time.Now()
	dispatcher.Dispatch(context.Background(), rule, entry)
	elapsed := time.Since(start)

	if len(sender.sent) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(sender.sent))
	}
	// Serial delivery would take at least 150ms.
	if elapsed > 120*time.Millisecond {
		t.Errorf("deliveries appear serialized: took %s", elapsed)
	}
}

func TestDispatcherTimeoutBoundsSlowSender(t *testing.T) {
	store := &fakeChannelStore{channels: map[int64]*models.NotificationChannel{
		10: {ID: 10, ChannelType: models.ChannelInApp, Enabled: true},
	}}
	sender := &recordingSender{delay: time.Second}
	dispatcher := NewDispatcher(DispatcherOptions{
		Channels: store,
		Senders:  map[models.ChannelType]Sender{models.ChannelInApp: sender},
		Timeout:  25 * time.Millisecond,
	})

	rule, entry := dispatchEntry()
	rule.NotificationChannels = []int64{10}
	start := time.Now()
	dispatcher.Dispatch(context.Background(), rule, entry)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("dispatch did not respect the per-channel timeout: took %s", elapsed)
	}
	if len(sender.sent) != 0 {
		t.Errorf("timed-out delivery should not be recorded as sent")
	}
}

func TestWebhookSenderPostsPayload(t *testing.T) {
	var requests int32
	var received webhookPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store := &fakeChannelStore{channels: map[int64]*models.NotificationChannel{
		10: {
			ID:          10,
			ChannelType: models.ChannelSlackWebhook,
			Enabled:     true,
			Config:      map[string]string{"webhook_url": ts.URL},
		},
	}}
	dispatcher := NewDispatcher(DispatcherOptions{
		Channels: store,
		Senders: map[models.ChannelType]Sender{
			models.ChannelSlackWebhook: NewWebhookSender(WebhookSenderOptions{Timeout: time.Second}),
		},
		Timeout: time.Second,
	})

	rule, entry := dispatchEntry()
	rule.NotificationChannels = []int64{10}
	dispatcher.Dispatch(context.Background(), rule, entry)

	if atomic.LoadInt32(&requests) != 1 {
		t.Fatalf("expected 1 webhook request, got %d", requests)
	}
	if received.Text != "[CRITICAL] feed-a at 93.8% utilization" {
		t.Errorf("webhook text = %q", received.Text)
	}
	if received.ActualValue != "93.75" || received.ThresholdValue != "90" {
		t.Errorf("webhook snapshot fields wrong: %+v", received)
	}
}

func TestWebhookSenderRejectsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer ts.Close()

	sender := NewWebhookSender(WebhookSenderOptions{Timeout: time.Second})
	channel := &models.NotificationChannel{
		ID:          10,
		ChannelType: models.ChannelSlackWebhook,
		Config:      map[string]string{"webhook_url": ts.URL},
	}
	if err := sender.Send(context.Background(), channel, Notification{Severity: models.SeverityInfo, Message: "hi"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestWebhookSenderRequiresURL(t *testing.T) {
	sender := NewWebhookSender(WebhookSenderOptions{})
	channel := &models.NotificationChannel{ID: 10, ChannelType: models.ChannelSlackWebhook}
	if err := sender.Send(context.Background(), channel, Notification{}); err == nil {
		t.Fatal("expected error for missing webhook_url")
	}
}
