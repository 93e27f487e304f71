package alerts

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// WebhookSenderOptions configures the slack_webhook sender.
type WebhookSenderOptions struct {
	Timeout       time.Duration
	SkipTLSVerify bool
	Logger        *slog.Logger
}

// WebhookSender posts alert payloads to Slack-compatible webhook URLs. The
// target URL comes from the channel's "webhook_url" config key.
type WebhookSender struct {
	client *http.Client
	logger *slog.Logger
}

type webhookPayload struct {
	Text           string    `json:"text"`
	RuleID         int64     `json:"rule_id"`
	RuleName       string    `json:"rule_name"`
	Severity       string    `json:"severity"`
	ResourceType   string    `json:"resource_type"`
	ResourceName   string    `json:"resource_name"`
	ThresholdValue string    `json:"threshold_value"`
	ActualValue    string    `json:"actual_value"`
	TriggeredAt    time.Time `json:"triggered_at"`
}

// NewWebhookSender constructs a webhook sender.
func NewWebhookSender(opts WebhookSenderOptions) *WebhookSender {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.SkipTLSVerify}, // #nosec G402
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookSender{
		client: &http.Client{Timeout: timeout, Transport: transport},
		logger: logger.With("component", "alert_webhook_sender"),
	}
}

// Send posts the notification to the channel's webhook URL.
func (s *WebhookSender) Send(ctx context.Context, channel *models.NotificationChannel, n Notification) error {
	url := strings.TrimSpace(channel.Config["webhook_url"])
	if url == "" {
		return fmt.Errorf("channel %d has no webhook_url configured", channel.ID)
	}

	payload := webhookPayload{
		Text:           fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Severity)), n.Message),
		RuleID:         n.RuleID,
		RuleName:       n.RuleName,
		Severity:       string(n.Severity),
		ResourceType:   n.ResourceType,
		ResourceName:   n.ResourceName,
		ThresholdValue: n.ThresholdValue,
		ActualValue:    n.ActualValue,
		TriggeredAt:    n.TriggeredAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	responseBody, readErr := io.ReadAll(response.Body)
	_ = response.Body.Close()
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		trimmed := ""
		if readErr == nil {
			trimmed = strings.TrimSpace(string(responseBody))
		}
		if trimmed == "" {
			trimmed = response.Status
		}
		return fmt.Errorf("webhook returned status %d (%s)", response.StatusCode, trimmed)
	}
	return nil
}
