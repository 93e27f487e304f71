// Package alerts implements the rule evaluation and notification engine:
// evaluators per rule type, cooldown suppression, history persistence, and
// channel fan-out.
package alerts

import (
	"context"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// Resource type labels recorded on candidates and history rows.
const (
	ResourcePowerFeed = "power_feed"
	ResourceDevice    = "device"
	ResourceRack      = "rack"
)

// Candidate is the output of an evaluator before cooldown suppression: one
// resource whose measured value crossed the rule's threshold.
type Candidate struct {
	ResourceType string
	ResourceID   int64
	ResourceName string
	ActualValue  string
	Message      string
}

// Evaluator produces candidates for a single rule. Implementations fetch
// the current operational values for their resource class and apply the
// threshold comparison; they never consult history or channels.
type Evaluator interface {
	Evaluate(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error)
}

// RuleStore supplies the set of rules to evaluate.
type RuleStore interface {
	ListEnabledAlertRules(ctx context.Context) ([]*models.AlertRule, error)
}

// HistoryStore persists triggers and backs the cooldown filter.
type HistoryStore interface {
	InsertAlertHistory(ctx context.Context, entry *models.AlertHistory) error
	LatestHistoryForRuleResource(ctx context.Context, ruleID int64, resourceType string, resourceID int64) (*models.AlertHistory, error)
	PruneAlertHistory(ctx context.Context, limit int) error
}

// ChannelStore resolves notification channel ids at dispatch time.
type ChannelStore interface {
	GetNotificationChannel(ctx context.Context, channelID int64) (*models.NotificationChannel, error)
}

// PowerProvider exposes the power feed data the power_threshold evaluator
// reads.
type PowerProvider interface {
	ListPowerFeeds(ctx context.Context) ([]*models.PowerFeed, error)
	LatestPowerReading(ctx context.Context, feedID int64) (*models.PowerReading, error)
}

// DeviceProvider exposes the devices the warranty_expiry evaluator reads.
type DeviceProvider interface {
	ListDevicesWithWarranty(ctx context.Context) ([]*models.Device, error)
}

// RackProvider exposes rack occupancy for the rack_capacity evaluator.
type RackProvider interface {
	ListRackOccupancy(ctx context.Context) ([]*models.RackOccupancy, error)
}

// SkipReason explains why a rule produced no evaluation at all.
type SkipReason string

const (
	SkipBadThreshold SkipReason = "unparseable_threshold"
	SkipUnknownType  SkipReason = "unknown_rule_type"
	SkipNone         SkipReason = ""
)

// RuleResult captures the outcome of evaluating one rule. Collecting these
// makes the continue-on-error contract explicit: a failed rule carries its
// error here instead of aborting the batch.
type RuleResult struct {
	RuleID     int64
	RuleName   string
	Skipped    SkipReason
	Candidates int
	Suppressed int
	Written    []*models.AlertHistory
	Err        error
}

// BatchResult is the summary of one engine invocation.
type BatchResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []RuleResult
	// Alerts are exactly the history records written during this
	// invocation, in evaluation order.
	Alerts []*models.AlertHistory
}

// RuleFailure is the caller-visible form of a failed rule evaluation.
type RuleFailure struct {
	RuleID   int64  `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Error    string `json:"error"`
}

// Failures lists the rules that failed to evaluate, so callers can tell
// "no breaches" apart from "rules broke".
func (b *BatchResult) Failures() []RuleFailure {
	var failures []RuleFailure
	for _, r := range b.Results {
		if r.Err != nil {
			failures = append(failures, RuleFailure{RuleID: r.RuleID, RuleName: r.RuleName, Error: r.Err.Error()})
		}
	}
	return failures
}
