// Package core contains the service layer between the HTTP handlers and
// the sqlite store: request validation, not-found mapping, and logging.
package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/rackwatch/rackwatch/internal/sqlite"
	"github.com/rackwatch/rackwatch/pkg/models"
)

var (
	// ErrRuleNotFound is returned when an alert rule cannot be located.
	ErrRuleNotFound = errors.New("alert rule not found")
	// ErrInvalidRuleConfiguration indicates the request payload failed validation.
	ErrInvalidRuleConfiguration = errors.New("invalid alert rule configuration")
)

var validOperators = map[models.ConditionOperator]struct{}{
	models.OperatorGreaterThan:        {},
	models.OperatorLessThan:           {},
	models.OperatorGreaterThanOrEqual: {},
	models.OperatorLessThanOrEqual:    {},
	models.OperatorEqual:              {},
}

var validSeverities = map[models.AlertSeverity]struct{}{
	models.SeverityCritical: {},
	models.SeverityWarning:  {},
	models.SeverityInfo:     {},
}

// ruleResources maps each known rule type to the resource class it
// inspects. Rule types outside this map are accepted at rest but skipped
// by the engine; creation restricts to known types so typos surface early.
var ruleResources = map[models.AlertRuleType]string{
	models.RuleTypePowerThreshold: "power_feed",
	models.RuleTypeWarrantyExpiry: "device",
	models.RuleTypeRackCapacity:   "rack",
}

func validateRuleRequest(req *models.CreateAlertRuleRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	resource, ok := ruleResources[req.RuleType]
	if !ok {
		return fmt.Errorf("invalid rule_type %q", req.RuleType)
	}
	if req.Resource != "" && req.Resource != resource {
		return fmt.Errorf("rule_type %q inspects resource %q, not %q", req.RuleType, resource, req.Resource)
	}
	if _, ok := validOperators[req.ConditionOperator]; !ok {
		return fmt.Errorf("invalid condition_operator %q", req.ConditionOperator)
	}
	if err := validateThreshold(req.ThresholdValue); err != nil {
		return err
	}
	if _, ok := validSeverities[req.Severity]; !ok {
		return fmt.Errorf("invalid severity %q", req.Severity)
	}
	if req.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown_minutes must not be negative")
	}
	return nil
}

func validateThreshold(value string) error {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("threshold_value %q is not a number", value)
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return fmt.Errorf("threshold_value must be finite")
	}
	return nil
}

// CreateAlertRule validates and persists a new rule.
func CreateAlertRule(ctx context.Context, db *sqlite.DB, log *slog.Logger, createdBy string, req *models.CreateAlertRuleRequest) (*models.AlertRule, error) {
	if req == nil {
		return nil, ErrInvalidRuleConfiguration
	}
	if err := validateRuleRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRuleConfiguration, err)
	}

	rule := &models.AlertRule{
		Name:                 strings.TrimSpace(req.Name),
		RuleType:             req.RuleType,
		Resource:             ruleResources[req.RuleType],
		ConditionField:       strings.TrimSpace(req.ConditionField),
		ConditionOperator:    req.ConditionOperator,
		ThresholdValue:       strings.TrimSpace(req.ThresholdValue),
		Severity:             req.Severity,
		Enabled:              req.Enabled,
		NotificationChannels: req.NotificationChannels,
		CooldownMinutes:      req.CooldownMinutes,
		CreatedBy:            createdBy,
	}
	if err := db.CreateAlertRule(ctx, rule); err != nil {
		log.Error("failed to create alert rule", "error", err)
		return nil, fmt.Errorf("failed to create alert rule: %w", err)
	}
	log.Info("alert rule created", "rule_id", rule.ID, "rule_type", rule.RuleType)
	return rule, nil
}

// GetAlertRule retrieves a single rule by id.
func GetAlertRule(ctx context.Context, db *sqlite.DB, ruleID int64) (*models.AlertRule, error) {
	rule, err := db.GetAlertRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}
	return rule, nil
}

// ListAlertRules returns all configured rules.
func ListAlertRules(ctx context.Context, db *sqlite.DB) ([]*models.AlertRule, error) {
	rules, err := db.ListAlertRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	return rules, nil
}

// UpdateAlertRule applies a partial update to an existing rule.
func UpdateAlertRule(ctx context.Context, db *sqlite.DB, log *slog.Logger, ruleID int64, req *models.UpdateAlertRuleRequest) (*models.AlertRule, error) {
	if req == nil {
		return nil, ErrInvalidRuleConfiguration
	}

	existing, err := GetAlertRule(ctx, db, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidRuleConfiguration)
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.RuleType != nil {
		resource, ok := ruleResources[*req.RuleType]
		if !ok {
			return nil, fmt.Errorf("%w: invalid rule_type %q", ErrInvalidRuleConfiguration, *req.RuleType)
		}
		existing.RuleType = *req.RuleType
		existing.Resource = resource
	}
	if req.Resource != nil && *req.Resource != existing.Resource {
		return nil, fmt.Errorf("%w: rule_type %q inspects resource %q", ErrInvalidRuleConfiguration, existing.RuleType, existing.Resource)
	}
	if req.ConditionField != nil {
		existing.ConditionField = strings.TrimSpace(*req.ConditionField)
	}
	if req.ConditionOperator != nil {
		if _, ok := validOperators[*req.ConditionOperator]; !ok {
			return nil, fmt.Errorf("%w: invalid condition_operator %q", ErrInvalidRuleConfiguration, *req.ConditionOperator)
		}
		existing.ConditionOperator = *req.ConditionOperator
	}
	if req.ThresholdValue != nil {
		if err := validateThreshold(*req.ThresholdValue); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRuleConfiguration, err)
		}
		existing.ThresholdValue = strings.TrimSpace(*req.ThresholdValue)
	}
	if req.Severity != nil {
		if _, ok := validSeverities[*req.Severity]; !ok {
			return nil, fmt.Errorf("%w: invalid severity %q", ErrInvalidRuleConfiguration, *req.Severity)
		}
		existing.Severity = *req.Severity
	}
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if req.NotificationChannels != nil {
		existing.NotificationChannels = *req.NotificationChannels
	}
	if req.CooldownMinutes != nil {
		if *req.CooldownMinutes < 0 {
			return nil, fmt.Errorf("%w: cooldown_minutes must not be negative", ErrInvalidRuleConfiguration)
		}
		existing.CooldownMinutes = *req.CooldownMinutes
	}

	if err := db.UpdateAlertRule(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		log.Error("failed to update alert rule", "rule_id", ruleID, "error", err)
		return nil, fmt.Errorf("failed to update alert rule: %w", err)
	}
	return existing, nil
}

// DeleteAlertRule removes a rule. Its history stays behind with a null
// rule reference.
func DeleteAlertRule(ctx context.Context, db *sqlite.DB, log *slog.Logger, ruleID int64) error {
	if err := db.DeleteAlertRule(ctx, ruleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlite.ErrNotFound) {
			return ErrRuleNotFound
		}
		log.Error("failed to delete alert rule", "rule_id", ruleID, "error", err)
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	log.Info("alert rule deleted", "rule_id", ruleID)
	return nil
}
