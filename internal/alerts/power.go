package alerts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// PowerEvaluator checks utilization of every power feed against a rule's
// threshold, expressed as a percentage of the feed's rated capacity.
type PowerEvaluator struct {
	provider PowerProvider
}

// NewPowerEvaluator constructs the power_threshold evaluator.
func NewPowerEvaluator(provider PowerProvider) *PowerEvaluator {
	return &PowerEvaluator{provider: provider}
}

// Evaluate computes usage percent per feed and emits a candidate for each
// feed crossing the threshold. Feeds without readings, or with a rated
// capacity of zero or less, are skipped.
func (e *PowerEvaluator) Evaluate(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error) {
	feeds, err := e.provider.ListPowerFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list power feeds: %w", err)
	}

	var candidates []Candidate
	for _, feed := range feeds {
		if feed.RatedKW <= 0 {
			continue
		}
		reading, err := e.provider.LatestPowerReading(ctx, feed.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch reading for feed %d: %w", feed.ID, err)
		}

		usagePercent := reading.PowerKW / feed.RatedKW * 100
		if !CompareThreshold(rule.ConditionOperator, usagePercent, threshold) {
			continue
		}
		candidates = append(candidates, Candidate{
			ResourceType: ResourcePowerFeed,
			ResourceID:   feed.ID,
			ResourceName: feed.Name,
			ActualValue:  strconv.FormatFloat(usagePercent, 'f', -1, 64),
			Message: fmt.Sprintf("power feed %s at %.1f%% utilization (%.2f kW of %.2f kW rated)",
				feed.Name, usagePercent, reading.PowerKW, feed.RatedKW),
		})
	}
	return candidates, nil
}
