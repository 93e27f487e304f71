package models

import "time"

// AlertRuleType selects which evaluator runs a rule. The set is open;
// unknown types are skipped at evaluation time rather than rejected.
type AlertRuleType string

const (
	RuleTypePowerThreshold AlertRuleType = "power_threshold"
	RuleTypeWarrantyExpiry AlertRuleType = "warranty_expiry"
	RuleTypeRackCapacity   AlertRuleType = "rack_capacity"
)

// ConditionOperator is the comparison applied between a measured value and
// the rule's threshold.
type ConditionOperator string

const (
	OperatorGreaterThan        ConditionOperator = "gt"
	OperatorLessThan           ConditionOperator = "lt"
	OperatorGreaterThanOrEqual ConditionOperator = "gte"
	OperatorLessThanOrEqual    ConditionOperator = "lte"
	OperatorEqual              ConditionOperator = "eq"
)

// AlertSeverity is a lightweight severity indicator for routing and display.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// ChannelType enumerates supported outbound notification channels.
type ChannelType string

const (
	ChannelSlackWebhook ChannelType = "slack_webhook"
	ChannelEmail        ChannelType = "email"
	ChannelInApp        ChannelType = "in_app"
)

// AlertRule is a configured monitoring policy evaluated against live
// inventory data. ThresholdValue is kept as text so decimal thresholds
// survive round-trips without float drift; it must parse as a finite
// number at evaluation time.
type AlertRule struct {
	ID                   int64             `json:"id"`
	Name                 string            `json:"name"`
	RuleType             AlertRuleType     `json:"rule_type"`
	Resource             string            `json:"resource"`
	ConditionField       string            `json:"condition_field"`
	ConditionOperator    ConditionOperator `json:"condition_operator"`
	ThresholdValue       string            `json:"threshold_value"`
	Severity             AlertSeverity     `json:"severity"`
	Enabled              bool              `json:"enabled"`
	NotificationChannels []int64           `json:"notification_channels"`
	CooldownMinutes      int               `json:"cooldown_minutes"`
	CreatedBy            string            `json:"created_by,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// AlertHistory is a fact record of one triggered alert instance. Rows are
// immutable once written except for the acknowledgment fields, which are
// set exactly once, together.
type AlertHistory struct {
	ID             int64         `json:"id"`
	RuleID         *int64        `json:"rule_id,omitempty"`
	Severity       AlertSeverity `json:"severity"`
	Message        string        `json:"message"`
	ResourceType   string        `json:"resource_type"`
	ResourceID     int64         `json:"resource_id"`
	ResourceName   string        `json:"resource_name"`
	ThresholdValue string        `json:"threshold_value"`
	ActualValue    string        `json:"actual_value"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string       `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Acknowledged reports whether the acknowledgment fields have been set.
func (h *AlertHistory) Acknowledged() bool {
	return h.AcknowledgedAt != nil
}

// NotificationChannel is a delivery target alert rules fan out to. Config
// is a string-keyed map whose shape depends on the channel type, e.g.
// "webhook_url" for slack_webhook or "recipients" for email.
type NotificationChannel struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	ChannelType ChannelType       `json:"channel_type"`
	Config      map[string]string `json:"config,omitempty"`
	Enabled     bool              `json:"enabled"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// InAppNotification is the persisted form of an in_app channel delivery,
// surfaced through the notification feed endpoints.
type InAppNotification struct {
	ID        int64      `json:"id"`
	HistoryID int64      `json:"history_id"`
	ChannelID int64      `json:"channel_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateAlertRuleRequest defines the payload required to create a rule.
type CreateAlertRuleRequest struct {
	Name                 string            `json:"name"`
	RuleType             AlertRuleType     `json:"rule_type"`
	Resource             string            `json:"resource"`
	ConditionField       string            `json:"condition_field"`
	ConditionOperator    ConditionOperator `json:"condition_operator"`
	ThresholdValue       string            `json:"threshold_value"`
	Severity             AlertSeverity     `json:"severity"`
	Enabled              bool              `json:"enabled"`
	NotificationChannels []int64           `json:"notification_channels"`
	CooldownMinutes      int               `json:"cooldown_minutes"`
}

// UpdateAlertRuleRequest defines updatable fields for a rule. Nil pointers
// leave the existing value untouched.
type UpdateAlertRuleRequest struct {
	Name                 *string            `json:"name"`
	RuleType             *AlertRuleType     `json:"rule_type"`
	Resource             *string            `json:"resource"`
	ConditionField       *string            `json:"condition_field"`
	ConditionOperator    *ConditionOperator `json:"condition_operator"`
	ThresholdValue       *string            `json:"threshold_value"`
	Severity             *AlertSeverity     `json:"severity"`
	Enabled              *bool              `json:"enabled"`
	NotificationChannels *[]int64           `json:"notification_channels"`
	CooldownMinutes      *int               `json:"cooldown_minutes"`
}

// CreateChannelRequest defines the payload required to create a channel.
type CreateChannelRequest struct {
	Name        string            `json:"name"`
	ChannelType ChannelType       `json:"channel_type"`
	Config      map[string]string `json:"config"`
	Enabled     bool              `json:"enabled"`
}

// UpdateChannelRequest defines updatable fields for a channel.
type UpdateChannelRequest struct {
	Name        *string            `json:"name"`
	ChannelType *ChannelType       `json:"channel_type"`
	Config      *map[string]string `json:"config"`
	Enabled     *bool              `json:"enabled"`
}

// DefaultAlertHistoryLimit controls the number of history entries returned
// when a caller does not specify one.
const DefaultAlertHistoryLimit = 50
