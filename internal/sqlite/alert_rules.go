package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	insertAlertRuleQuery = `INSERT INTO alert_rules (
    name,
    rule_type,
    resource,
    condition_field,
    condition_operator,
    threshold_value,
    severity,
    enabled,
    notification_channels,
    cooldown_minutes,
    created_by
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, created_at, updated_at`

	selectAlertRuleBase = `SELECT
    id,
    name,
    rule_type,
    resource,
    condition_field,
    condition_operator,
    threshold_value,
    severity,
    enabled,
    notification_channels,
    cooldown_minutes,
    created_by,
    created_at,
    updated_at
FROM alert_rules`

	updateAlertRuleQuery = `UPDATE alert_rules
SET name = ?,
    rule_type = ?,
    resource = ?,
    condition_field = ?,
    condition_operator = ?,
    threshold_value = ?,
    severity = ?,
    enabled = ?,
    notification_channels = ?,
    cooldown_minutes = ?,
    updated_at = datetime('now')
WHERE id = ?`

	deleteAlertRuleQuery = `DELETE FROM alert_rules WHERE id = ?`
)

// CreateAlertRule inserts a new rule definition.
func (db *DB) CreateAlertRule(ctx context.Context, rule *models.AlertRule) error {
	if rule == nil {
		return fmt.Errorf("rule payload is required")
	}

	channelsJSON, err := json.Marshal(channelIDsOrEmpty(rule.NotificationChannels))
	if err != nil {
		return fmt.Errorf("failed to marshal notification channels: %w", err)
	}

	row := db.writeDB.QueryRowContext(ctx, insertAlertRuleQuery,
		rule.Name,
		string(rule.RuleType),
		rule.Resource,
		rule.ConditionField,
		string(rule.ConditionOperator),
		rule.ThresholdValue,
		string(rule.Severity),
		boolToInt(rule.Enabled),
		string(channelsJSON),
		rule.CooldownMinutes,
		nullableString(rule.CreatedBy),
	)

	var (
		id        int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &createdAt, &updatedAt); err != nil {
		return fmt.Errorf("failed to insert alert rule: %w", err)
	}
	rule.ID = id
	rule.CreatedAt = createdAt
	rule.UpdatedAt = updatedAt
	return nil
}

// GetAlertRule retrieves a rule by its identifier.
func (db *DB) GetAlertRule(ctx context.Context, ruleID int64) (*models.AlertRule, error) {
	row := db.readDB.QueryRowContext(ctx, selectAlertRuleBase+" WHERE id = ?", ruleID)
	return scanAlertRule(row)
}

// ListAlertRules returns all rules, newest first.
func (db *DB) ListAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	rows, err := db.readDB.QueryContext(ctx, selectAlertRuleBase+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.AlertRule
	for rows.Next() {
		rule, err := scanAlertRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rules: %w", err)
	}
	return rules, nil
}

// ListEnabledAlertRules returns the rules the engine should evaluate.
func (db *DB) ListEnabledAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	rows, err := db.readDB.QueryContext(ctx, selectAlertRuleBase+" WHERE enabled = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled alert rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.AlertRule
	for rows.Next() {
		rule, err := scanAlertRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enabled alert rules: %w", err)
	}
	return rules, nil
}

// UpdateAlertRule persists changes to an existing rule definition.
func (db *DB) UpdateAlertRule(ctx context.Context, rule *models.AlertRule) error {
	if rule == nil {
		return fmt.Errorf("rule payload is required")
	}

	channelsJSON, err := json.Marshal(channelIDsOrEmpty(rule.NotificationChannels))
	if err != nil {
		return fmt.Errorf("failed to marshal notification channels: %w", err)
	}

	res, err := db.writeDB.ExecContext(ctx, updateAlertRuleQuery,
		rule.Name,
		string(rule.RuleType),
		rule.Resource,
		rule.ConditionField,
		string(rule.ConditionOperator),
		rule.ThresholdValue,
		string(rule.Severity),
		boolToInt(rule.Enabled),
		string(channelsJSON),
		rule.CooldownMinutes,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert rule: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAlertRule removes a rule definition. History rows keep a null
// rule_id via the schema's ON DELETE SET NULL.
func (db *DB) DeleteAlertRule(ctx context.Context, ruleID int64) error {
	res, err := db.writeDB.ExecContext(ctx, deleteAlertRuleQuery, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func channelIDsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func scanAlertRule(scanner interface{ Scan(dest ...any) error }) (*models.AlertRule, error) {
	var (
		id                int64
		name              string
		ruleType          string
		resource          string
		conditionField    string
		conditionOperator string
		thresholdValue    string
		severity          string
		enabled           int64
		channelsJSON      string
		cooldownMinutes   int
		createdBy         sql.NullString
		createdAt         time.Time
		updatedAt         time.Time
	)
	if err := scanner.Scan(&id, &name, &ruleType, &resource, &conditionField, &conditionOperator, &thresholdValue, &severity, &enabled, &channelsJSON, &cooldownMinutes, &createdBy, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan alert rule: %w", err)
	}

	var channels []int64
	if channelsJSON != "" {
		if err := json.Unmarshal([]byte(channelsJSON), &channels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification channels: %w", err)
		}
	}

	return &models.AlertRule{
		ID:                   id,
		Name:                 name,
		RuleType:             models.AlertRuleType(ruleType),
		Resource:             resource,
		ConditionField:       conditionField,
		ConditionOperator:    models.ConditionOperator(conditionOperator),
		ThresholdValue:       thresholdValue,
		Severity:             models.AlertSeverity(severity),
		Enabled:              enabled == 1,
		NotificationChannels: channels,
		CooldownMinutes:      cooldownMinutes,
		CreatedBy:            createdBy.String,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}, nil
}
