package alerts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// RackEvaluator checks occupied rack units, measured as the summed
// U-heights of installed devices, as a percentage of rack height.
type RackEvaluator struct {
	provider RackProvider
}

// NewRackEvaluator constructs the rack_capacity evaluator.
func NewRackEvaluator(provider RackProvider) *RackEvaluator {
	return &RackEvaluator{provider: provider}
}

// Evaluate emits one candidate per rack whose occupancy percentage crosses
// the threshold. Racks with a height of zero or less are skipped.
func (e *RackEvaluator) Evaluate(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error) {
	racks, err := e.provider.ListRackOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rack occupancy: %w", err)
	}

	var candidates []Candidate
	for _, rack := range racks {
		if rack.UHeight <= 0 {
			continue
		}
		occupiedPercent := float64(rack.OccupiedUnits) / float64(rack.UHeight) * 100
		if !CompareThreshold(rule.ConditionOperator, occupiedPercent, threshold) {
			continue
		}
		candidates = append(candidates, Candidate{
			ResourceType: ResourceRack,
			ResourceID:   rack.ID,
			ResourceName: rack.Name,
			ActualValue:  strconv.FormatFloat(occupiedPercent, 'f', -1, 64),
			Message: fmt.Sprintf("rack %s at %.1f%% capacity (%d of %d U occupied)",
				rack.Name, occupiedPercent, rack.OccupiedUnits, rack.UHeight),
		})
	}
	return candidates, nil
}
