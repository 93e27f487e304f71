package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/rackwatch/rackwatch/pkg/models"
)

type fakeInAppStore struct {
	inserted []*models.InAppNotification
	err      error
}

func (f *fakeInAppStore) InsertInAppNotification(ctx context.Context, n *models.InAppNotification) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, n)
	return nil
}

func TestInAppSender(t *testing.T) {
	store := &fakeInAppStore{}
	sender := NewInAppSender(store, nil)

	channel := &models.NotificationChannel{ID: 7, ChannelType: models.ChannelInApp, Enabled: true}
	n := Notification{
		HistoryID: 42,
		RuleName:  "power usage",
		Severity:  models.SeverityWarning,
		Message:   "feed-a at 93.8% utilization",
	}
	if err := sender.Send(context.Background(), channel, n); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(store.inserted))
	}
	record := store.inserted[0]
	if record.HistoryID != 42 || record.ChannelID != 7 {
		t.Errorf("wrong references: %+v", record)
	}
	if record.Title != "[WARNING] power usage" {
		t.Errorf("title = %q", record.Title)
	}
	if record.Body != n.Message {
		t.Errorf("body = %q", record.Body)
	}
}

func TestInAppSenderStoreError(t *testing.T) {
	sender := NewInAppSender(&fakeInAppStore{err: errors.New("disk full")}, nil)
	channel := &models.NotificationChannel{ID: 7, ChannelType: models.ChannelInApp}
	if err := sender.Send(context.Background(), channel, Notification{}); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
