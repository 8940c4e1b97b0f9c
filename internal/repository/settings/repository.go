package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"box-bot/internal/models"
	"box-bot/internal/repository"

	"github.com/jmoiron/sqlx"
)

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	err := r.db.GetContext(ctx, &s, `SELECT * FROM settings LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings row is missing: %w", repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
