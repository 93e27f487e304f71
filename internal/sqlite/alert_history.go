package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	insertAlertHistoryQuery = `INSERT INTO alert_history (
    rule_id,
    severity,
    message,
    resource_type,
    resource_id,
    resource_name,
    threshold_value,
    actual_value
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, created_at`

	selectAlertHistoryBase = `SELECT
    id,
    rule_id,
    severity,
    message,
    resource_type,
    resource_id,
    resource_name,
    threshold_value,
    actual_value,
    acknowledged_at,
    acknowledged_by,
    resolved_at,
    created_at
FROM alert_history`

	latestHistoryForPairQuery = selectAlertHistoryBase + `
WHERE rule_id = ? AND resource_type = ? AND resource_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1`

	acknowledgeHistoryQuery = `UPDATE alert_history
SET acknowledged_at = datetime('now'),
    acknowledged_by = ?
WHERE id = ? AND acknowledged_at IS NULL`

	pruneAlertHistoryQuery = `WITH ranked AS (
    SELECT id,
           ROW_NUMBER() OVER (ORDER BY created_at DESC, id DESC) AS rn
    FROM alert_history
)
DELETE FROM alert_history
WHERE id IN (
    SELECT id FROM ranked WHERE rn > ?
)`
)

// InsertAlertHistory persists a new trigger record. Snapshot fields
// (severity, resource name, threshold, actual value) come from the caller;
// the store never re-derives them.
func (db *DB) InsertAlertHistory(ctx context.Context, entry *models.AlertHistory) error {
	if entry == nil {
		return fmt.Errorf("history entry is required")
	}

	var ruleID interface{}
	if entry.RuleID != nil {
		ruleID = *entry.RuleID
	}

	row := db.writeDB.QueryRowContext(ctx, insertAlertHistoryQuery,
		ruleID,
		string(entry.Severity),
		entry.Message,
		entry.ResourceType,
		entry.ResourceID,
		entry.ResourceName,
		entry.ThresholdValue,
		entry.ActualValue,
	)

	var (
		id        int64
		createdAt time.Time
	)
	if err := row.Scan(&id, &createdAt); err != nil {
		return fmt.Errorf("failed to insert alert history: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = createdAt
	return nil
}

// GetAlertHistory retrieves one history record by id.
func (db *DB) GetAlertHistory(ctx context.Context, historyID int64) (*models.AlertHistory, error) {
	row := db.readDB.QueryRowContext(ctx, selectAlertHistoryBase+" WHERE id = ?", historyID)
	return scanAlertHistory(row)
}

// LatestHistoryForRuleResource fetches the most recent history record for
// an exact (rule, resource type, resource id) tuple. The cooldown filter
// reads through this.
func (db *DB) LatestHistoryForRuleResource(ctx context.Context, ruleID int64, resourceType string, resourceID int64) (*models.AlertHistory, error) {
	row := db.readDB.QueryRowContext(ctx, latestHistoryForPairQuery, ruleID, resourceType, resourceID)
	return scanAlertHistory(row)
}

// ListAlertHistory returns the most recent history records.
func (db *DB) ListAlertHistory(ctx context.Context, limit int) ([]*models.AlertHistory, error) {
	if limit <= 0 {
		limit = models.DefaultAlertHistoryLimit
	}
	rows, err := db.readDB.QueryContext(ctx, selectAlertHistoryBase+" ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert history: %w", err)
	}
	defer rows.Close()

	var history []*models.AlertHistory
	for rows.Next() {
		entry, err := scanAlertHistory(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert history: %w", err)
	}
	return history, nil
}

// AcknowledgeAlertHistory sets both acknowledgment fields on an
// unacknowledged record. Returns sql.ErrNoRows when the record does not
// exist or was already acknowledged; callers distinguish the two with a
// preceding GetAlertHistory.
func (db *DB) AcknowledgeAlertHistory(ctx context.Context, historyID int64, acknowledgedBy string) error {
	res, err := db.writeDB.ExecContext(ctx, acknowledgeHistoryQuery, acknowledgedBy, historyID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert history: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PruneAlertHistory removes the oldest history entries beyond the
// configured retention limit.
func (db *DB) PruneAlertHistory(ctx context.Context, limit int) error {
	if limit <= 0 {
		return nil
	}
	if _, err := db.writeDB.ExecContext(ctx, pruneAlertHistoryQuery, limit); err != nil {
		return fmt.Errorf("failed to prune alert history: %w", err)
	}
	return nil
}

func scanAlertHistory(scanner interface{ Scan(dest ...any) error }) (*models.AlertHistory, error) {
	var (
		id             int64
		ruleID         sql.NullInt64
		severity       string
		message        string
		resourceType   string
		resourceID     int64
		resourceName   string
		thresholdValue string
		actualValue    string
		acknowledgedAt sql.NullTime
		acknowledgedBy sql.NullString
		resolvedAt     sql.NullTime
		createdAt      time.Time
	)
	if err := scanner.Scan(&id, &ruleID, &severity, &message, &resourceType, &resourceID, &resourceName, &thresholdValue, &actualValue, &acknowledgedAt, &acknowledgedBy, &resolvedAt, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan alert history: %w", err)
	}

	entry := &models.AlertHistory{
		ID:             id,
		Severity:       models.AlertSeverity(severity),
		Message:        message,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		ResourceName:   resourceName,
		ThresholdValue: thresholdValue,
		ActualValue:    actualValue,
		CreatedAt:      createdAt,
	}
	if ruleID.Valid {
		entry.RuleID = &ruleID.Int64
	}
	if acknowledgedAt.Valid {
		entry.AcknowledgedAt = &acknowledgedAt.Time
	}
	if acknowledgedBy.Valid {
		entry.AcknowledgedBy = &acknowledgedBy.String
	}
	if resolvedAt.Valid {
		entry.ResolvedAt = &resolvedAt.Time
	}
	return entry, nil
}
