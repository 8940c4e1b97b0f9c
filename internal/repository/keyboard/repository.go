package keyboard

import (
	"context"
	"database/sql"
	"errors"

	"box-bot/internal/models"
	"box-bot/internal/repository"

	"github.com/jmoiron/sqlx"
)

type keyboardKeyRepository struct {
	db *sqlx.DB
}

func NewKeyboardKeyRepository(db *sqlx.DB) repository.KeyboardKeyRepository {
	return &keyboardKeyRepository{db: db}
}

func (r *keyboardKeyRepository) Active(ctx context.Context) ([]models.KeyboardKey, error) {
	var keys []models.KeyboardKey
	query := `
		SELECT id, key, status, text_markdown, COALESCE(photo_link, '') AS photo_link
		FROM keyboard_keys
		WHERE status IN ('normal', 'me')
		ORDER BY id ASC
	`
	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *keyboardKeyRepository) ByText(ctx context.Context, text string) (*models.KeyboardKey, error) {
	var key models.KeyboardKey
	query := `
		SELECT id, key, status, text_markdown, COALESCE(photo_link, '') AS photo_link
		FROM keyboard_keys
		WHERE key = $1 AND status != 'inactive'
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &key, query, text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}
