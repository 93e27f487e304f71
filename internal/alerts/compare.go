package alerts

import "github.com/rackwatch/rackwatch/pkg/models"

// CompareThreshold reports whether actual crosses threshold under the
// given operator. eq is exact float comparison; callers needing tolerance
// pre-round. An unknown operator never matches, so schema drift in stored
// rules degrades to a silent skip rather than an error.
func CompareThreshold(operator models.ConditionOperator, actual, threshold float64) bool {
	switch operator {
	case models.OperatorGreaterThan:
		return actual > threshold
	case models.OperatorLessThan:
		return actual < threshold
	case models.OperatorGreaterThanOrEqual:
		return actual >= threshold
	case models.OperatorLessThanOrEqual:
		return actual <= threshold
	case models.OperatorEqual:
		return actual == threshold
	default:
		return false
	}
}
