package repositories

import (
	"context"
	"database/sql"
	"time"
)

// RefreshTokenKey is the app_config row holding the current Kommo refresh
// token. Losing this row means re-seeding via PUT /api/token.
const RefreshTokenKey = "KOMMO_REFRESH_TOKEN"

type ConfigRepository struct {
	db *sql.DB
}

func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *ConfigRepository) SetValue(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

// Get and Set implement kommo.TokenStore over the refresh token row.
func (r *ConfigRepository) Get(ctx context.Context) (string, error) {
	return r.GetValue(ctx, RefreshTokenKey)
}

func (r *ConfigRepository) Set(ctx context.Context, token string) error {
	return r.SetValue(ctx, RefreshTokenKey, token)
}
