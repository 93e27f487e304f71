package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// CooldownFilter suppresses a candidate when the same rule+resource pair
// already fired within the rule's cooldown window. This is what stops a
// feed sitting above threshold from alerting every evaluation cycle.
type CooldownFilter struct {
	history HistoryStore
	now     func() time.Time
}

// NewCooldownFilter constructs a filter reading through the given history
// store.
func NewCooldownFilter(history HistoryStore) *CooldownFilter {
	return &CooldownFilter{history: history, now: time.Now}
}

// Suppressed reports whether the most recent history record for
// (ruleID, resourceType, resourceID) falls inside the cooldown window. A
// cooldown of zero disables suppression entirely.
func (f *CooldownFilter) Suppressed(ctx context.Context, ruleID int64, resourceType string, resourceID int64, cooldownMinutes int) (bool, error) {
	if cooldownMinutes <= 0 {
		return false, nil
	}

	last, err := f.history.LatestHistoryForRuleResource(ctx, ruleID, resourceType, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check alert history: %w", err)
	}

	window := time.Duration(cooldownMinutes) * time.Minute
	return f.now().Sub(last.CreatedAt) < window, nil
}
