package field

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"box-bot/internal/models"
	"box-bot/internal/repository"

	"github.com/jmoiron/sqlx"
)

type fieldRepository struct {
	db *sqlx.DB
}

func NewFieldRepository(db *sqlx.DB) repository.FieldRepository {
	return &fieldRepository{db: db}
}

func (r *fieldRepository) FirstInBranch(ctx context.Context, branchKey string) (*models.Field, error) {
	var field models.Field
	query := `
		SELECT f.* FROM fields f
		JOIN field_branches b ON f.branch_id = b.id
		WHERE b.key = $1 AND f.status != 'inactive'
		ORDER BY f.order_place ASC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &field, query, branchKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("branch %q has no active fields: %w", branchKey, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepository) NextInBranch(ctx context.Context, curr *models.Field) (*models.Field, error) {
	var field models.Field
	query := `
		SELECT * FROM fields
		WHERE branch_id = $1 AND order_place > $2 AND status != 'inactive'
		ORDER BY order_place ASC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &field, query, curr.BranchID, curr.OrderPlace)
	if errors.Is(err, sql.ErrNoRows) {
		// ветка исчерпана
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepository) ByID(ctx context.Context, id int64) (*models.Field, error) {
	var field models.Field
	err := r.db.GetContext(ctx, &field, `SELECT * FROM fields WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("field id=%d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepository) ByKey(ctx context.Context, key string) (*models.Field, error) {
	var field models.Field
	err := r.db.GetContext(ctx, &field, `SELECT * FROM fields WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("field key=%q: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepository) ActiveMain(ctx context.Context) ([]models.Field, error) {
	var fields []models.Field
	query := `SELECT * FROM fields WHERE status = 'main' ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &fields, query); err != nil {
		return nil, err
	}
	return fields, nil
}
