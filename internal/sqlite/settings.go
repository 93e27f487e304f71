package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// GetSetting retrieves a setting value from the database.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.readDB.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// CountSettings reports how many settings rows exist. The app uses this to
// decide whether to seed defaults on first boot.
func (db *DB) CountSettings(ctx context.Context) (int, error) {
	var count int
	if err := db.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_settings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count settings: %w", err)
	}
	return count, nil
}

// UpsertSetting creates or updates a setting.
func (db *DB) UpsertSetting(ctx context.Context, key, value, valueType, category, description string, isSensitive bool) error {
	_, err := db.writeDB.ExecContext(ctx, `INSERT INTO system_settings (key, value, value_type, category, description, is_sensitive, updated_at)
VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    value_type = excluded.value_type,
    category = excluded.category,
    description = excluded.description,
    is_sensitive = excluded.is_sensitive,
    updated_at = datetime('now')`,
		key, value, valueType, category, description, boolToInt(isSensitive))
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}

// GetSettingWithDefault retrieves a setting value or returns the default if
// not found.
func (db *DB) GetSettingWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := db.GetSetting(ctx, key)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetBoolSetting retrieves a boolean setting value.
func (db *DB) GetBoolSetting(ctx context.Context, key string, defaultValue bool) bool {
	value, err := db.GetSetting(ctx, key)
	if err != nil {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// GetIntSetting retrieves an integer setting value.
func (db *DB) GetIntSetting(ctx context.Context, key string, defaultValue int) int {
	value, err := db.GetSetting(ctx, key)
	if err != nil {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// GetDurationSetting retrieves a duration setting value.
func (db *DB) GetDurationSetting(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	value, err := db.GetSetting(ctx, key)
	if err != nil {
		return defaultValue
	}
	durationVal, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return durationVal
}
