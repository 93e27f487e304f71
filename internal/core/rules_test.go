package core

import (
	"testing"

	"github.com/rackwatch/rackwatch/pkg/models"
)

func validCreateRequest() *models.CreateAlertRuleRequest {
	return &models.CreateAlertRuleRequest{
		Name:              "Power feed above 90%",
		RuleType:          models.RuleTypePowerThreshold,
		ConditionField:    "usage_percent",
		ConditionOperator: models.OperatorGreaterThan,
		ThresholdValue:    "90",
		Severity:          models.SeverityCritical,
		Enabled:           true,
		CooldownMinutes:   60,
	}
}

func TestValidateRuleRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.CreateAlertRuleRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *models.CreateAlertRuleRequest) {}},
		{name: "valid warranty rule", mutate: func(r *models.CreateAlertRuleRequest) {
			r.RuleType = models.RuleTypeWarrantyExpiry
			r.ConditionOperator = models.OperatorLessThanOrEqual
			r.ThresholdValue = "30"
		}},
		{name: "valid rack rule", mutate: func(r *models.CreateAlertRuleRequest) {
			r.RuleType = models.RuleTypeRackCapacity
			r.ConditionOperator = models.OperatorGreaterThanOrEqual
			r.ThresholdValue = "80"
		}},
		{name: "decimal threshold", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ThresholdValue = "87.5"
		}},
		{name: "negative threshold", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ThresholdValue = "-5"
		}},
		{name: "zero cooldown", mutate: func(r *models.CreateAlertRuleRequest) {
			r.CooldownMinutes = 0
		}},

		{name: "empty name", mutate: func(r *models.CreateAlertRuleRequest) {
			r.Name = "  "
		}, wantErr: true},
		{name: "unknown rule type", mutate: func(r *models.CreateAlertRuleRequest) {
			r.RuleType = models.AlertRuleType("disk_usage")
		}, wantErr: true},
		{name: "resource mismatch", mutate: func(r *models.CreateAlertRuleRequest) {
			r.Resource = "rack"
		}, wantErr: true},
		{name: "invalid operator", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ConditionOperator = models.ConditionOperator("neq")
		}, wantErr: true},
		{name: "non-numeric threshold", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ThresholdValue = "ninety"
		}, wantErr: true},
		{name: "empty threshold", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ThresholdValue = ""
		}, wantErr: true},
		{name: "NaN threshold", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ThresholdValue = "NaN"
		}, wantErr: true},
		{name: "infinite threshold", mutate: func(r *models.CreateAlertRuleRequest) {
			r.ThresholdValue = "+Inf"
		}, wantErr: true},
		{name: "invalid severity", mutate: func(r *models.CreateAlertRuleRequest) {
			r.Severity = models.AlertSeverity("fatal")
		}, wantErr: true},
		{name: "negative cooldown", mutate: func(r *models.CreateAlertRuleRequest) {
			r.CooldownMinutes = -1
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)
			err := validateRuleRequest(req)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
