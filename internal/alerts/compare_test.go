package alerts

import (
	"testing"

	"github.com/rackwatch/rackwatch/pkg/models"
)

func TestCompareThreshold(t *testing.T) {
	tests := []struct {
		name      string
		operator  models.ConditionOperator
		actual    float64
		threshold float64
		want      bool
	}{
		{name: "gt above", operator: models.OperatorGreaterThan, actual: 92, threshold: 90, want: true},
		{name: "gt equal", operator: models.OperatorGreaterThan, actual: 90, threshold: 90, want: false},
		{name: "gt below", operator: models.OperatorGreaterThan, actual: 89.9, threshold: 90, want: false},

		{name: "lt below", operator: models.OperatorLessThan, actual: 10, threshold: 30, want: true},
		{name: "lt equal", operator: models.OperatorLessThan, actual: 30, threshold: 30, want: false},
		{name: "lt above", operator: models.OperatorLessThan, actual: 31, threshold: 30, want: false},

		{name: "gte above", operator: models.OperatorGreaterThanOrEqual, actual: 80.5, threshold: 80, want: true},
		{name: "gte equal", operator: models.OperatorGreaterThanOrEqual, actual: 80, threshold: 80, want: true},
		{name: "gte below", operator: models.OperatorGreaterThanOrEqual, actual: 79.999, threshold: 80, want: false},

		{name: "lte below", operator: models.OperatorLessThanOrEqual, actual: 5, threshold: 30, want: true},
		{name: "lte equal", operator: models.OperatorLessThanOrEqual, actual: 30, threshold: 30, want: true},
		{name: "lte negative actual", operator: models.OperatorLessThanOrEqual, actual: -3, threshold: 30, want: true},
		{name: "lte above", operator: models.OperatorLessThanOrEqual, actual: 30.001, threshold: 30, want: false},

		{name: "eq exact", operator: models.OperatorEqual, actual: 42, threshold: 42, want: true},
		{name: "eq different", operator: models.OperatorEqual, actual: 42, threshold: 42.0001, want: false},
		// Exact comparison: accumulated float error does not count as equal.
		{name: "eq float drift", operator: models.OperatorEqual, actual: 0.1 + 0.2, threshold: 0.3, want: false},

		{name: "unknown operator", operator: models.ConditionOperator("neq"), actual: 1, threshold: 2, want: false},
		{name: "empty operator", operator: models.ConditionOperator(""), actual: 1, threshold: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareThreshold(tt.operator, tt.actual, tt.threshold)
			if got != tt.want {
				t.Errorf("CompareThreshold(%q, %v, %v) = %v, want %v", tt.operator, tt.actual, tt.threshold, got, tt.want)
			}
		})
	}
}
