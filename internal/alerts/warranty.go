package alerts

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// WarrantyEvaluator checks how many days remain on each device warranty.
// Thresholds are day counts; already-expired warranties yield negative
// values, so an `lte 30` rule catches both "expires soon" and "expired".
type WarrantyEvaluator struct {
	provider DeviceProvider
	now      func() time.Time
}

// NewWarrantyEvaluator constructs the warranty_expiry evaluator.
func NewWarrantyEvaluator(provider DeviceProvider) *WarrantyEvaluator {
	return &WarrantyEvaluator{provider: provider, now: time.Now}
}

// Evaluate emits one candidate per device whose remaining warranty days
// cross the threshold. Devices without a warranty date never appear here;
// the provider filters them out.
func (e *WarrantyEvaluator) Evaluate(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error) {
	devices, err := e.provider.ListDevicesWithWarranty(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	now := e.now()
	var candidates []Candidate
	for _, device := range devices {
		if device.WarrantyExpiresAt == nil {
			continue
		}
		daysRemaining := int(math.Floor(device.WarrantyExpiresAt.Sub(now).Hours() / 24))
		if !CompareThreshold(rule.ConditionOperator, float64(daysRemaining), threshold) {
			continue
		}

		var message string
		if daysRemaining < 0 {
			message = fmt.Sprintf("device %s warranty expired %d days ago", device.Name, -daysRemaining)
		} else {
			message = fmt.Sprintf("device %s warranty expires in %d days", device.Name, daysRemaining)
		}
		candidates = append(candidates, Candidate{
			ResourceType: ResourceDevice,
			ResourceID:   device.ID,
			ResourceName: device.Name,
			ActualValue:  strconv.Itoa(daysRemaining),
			Message:      message,
		})
	}
	return candidates, nil
}
