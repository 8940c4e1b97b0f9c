package botstatus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"box-bot/internal/models"
	"box-bot/internal/repository"

	"github.com/jmoiron/sqlx"
)

type botStatusRepository struct {
	db *sqlx.DB
}

func NewBotStatusRepository(db *sqlx.DB) repository.BotStatusRepository {
	return &botStatusRepository{db: db}
}

func (r *botStatusRepository) Get(ctx context.Context) (*models.BotStatus, error) {
	var status models.BotStatus
	err := r.db.GetContext(ctx, &status, `SELECT * FROM bot_status LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bot_status row is missing: %w", repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *botStatusRepository) SetStatus(ctx context.Context, status models.BotRunStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bot_status SET bot_status = $1`, status)
	return err
}

func (r *botStatusRepository) SetRegistrationOpen(ctx context.Context, open bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bot_status SET is_registration_open = $1`, open)
	return err
}
