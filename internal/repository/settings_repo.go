package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kidsvideohub/internal/database"
)

type SettingsRepository struct {
	db database.DBTX
}

func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key. The boolean is false when the
// key has never been set.
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := `SELECT setting_value FROM settings WHERE setting_key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting: %w", err)
	}
	return value, true, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	query := r.db.GetDialect().UpsertSettingQuery()
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// IsFlagSet reports whether a boolean setting is "true"
func (r *SettingsRepository) IsFlagSet(ctx context.Context, key string) (bool, error) {
	value, ok, err := r.GetSetting(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return value == "true", nil
}

// SetFlag stores a boolean setting
func (r *SettingsRepository) SetFlag(ctx context.Context, key string, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return r.SetSetting(ctx, key, value)
}
