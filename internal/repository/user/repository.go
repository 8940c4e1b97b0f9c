package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"box-bot/internal/models"
	"box-bot/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, chatID int64, username string, firstFieldID int64) (*models.User, error) {
	user := models.User{
		ChatID:      chatID,
		Username:    sql.NullString{String: username, Valid: username != ""},
		Timestamp:   time.Now(),
		Status:      models.UserStatusInactive,
		CurrFieldID: sql.NullInt64{Int64: firstFieldID, Valid: true},
	}

	query := `
		INSERT INTO users (chat_id, username, timestamp, status, have_banned_bot, curr_field_id)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ChatID, user.Username, user.Timestamp, user.Status, user.CurrFieldID,
	).Scan(&user.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return nil, fmt.Errorf("user chat_id=%d already exists: %w", chatID, repository.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AdvanceWithAnswer сдвигает указатель текущего поля и пишет ответ одной
// транзакцией. Условие curr_field_id = $expected отсекает гонку двух
// сообщений одного пользователя: проигравший апдейт не трогает ни одной
// строки и вся операция откатывается с ErrConflict.
func (r *userRepository) AdvanceWithAnswer(ctx context.Context, p repository.AdvanceParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	if p.NewStatus != nil {
		res, err = tx.ExecContext(ctx,
			`UPDATE users SET curr_field_id = $1, status = $2 WHERE id = $3 AND curr_field_id = $4`,
			nullableID(p.NextFieldID), *p.NewStatus, p.UserID, p.CurrFieldID,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE users SET curr_field_id = $1 WHERE id = $2 AND curr_field_id = $3`,
			nullableID(p.NextFieldID), p.UserID, p.CurrFieldID,
		)
	}
	if err != nil {
		return fmt.Errorf("advance user id=%d: %w", p.UserID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user id=%d is no longer on field id=%d: %w",
			p.UserID, p.CurrFieldID, repository.ErrConflict)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_field_values (user_id, field_id, value) VALUES ($1, $2, $3)`,
		p.UserID, p.CurrFieldID, p.Value,
	)
	if err != nil {
		return fmt.Errorf("record answer user id=%d field id=%d: %w", p.UserID, p.CurrFieldID, err)
	}

	return tx.Commit()
}

func (r *userRepository) ValueForKey(ctx context.Context, userID int64, fieldKey string) (string, error) {
	var value string
	query := `
		SELECT v.value FROM user_field_values v
		JOIN fields f ON v.field_id = f.id
		WHERE f.key = $1 AND v.user_id = $2
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &value, query, fieldKey, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no value for user id=%d key=%q: %w", userID, fieldKey, repository.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *userRepository) Values(ctx context.Context, userID int64) ([]models.UserFieldData, error) {
	var values []models.UserFieldData
	query := `
		SELECT f.key AS field_key, v.value FROM user_field_values v
		JOIN fields f ON v.field_id = f.id
		WHERE v.user_id = $1
		ORDER BY f.order_place ASC
	`
	if err := r.db.SelectContext(ctx, &values, query, userID); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *userRepository) SetBannedBot(ctx context.Context, chatID int64, banned bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET have_banned_bot = $1 WHERE chat_id = $2`, banned, chatID)
	return err
}

func (r *userRepository) ListWithValues(ctx context.Context) ([]models.UserWithValues, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY id ASC`); err != nil {
		return nil, err
	}

	type valueRow struct {
		UserID         int64          `db:"user_id"`
		FieldID        int64          `db:"field_id"`
		Value          string         `db:"value"`
		DocumentBucket sql.NullString `db:"document_bucket"`
	}
	var rows []valueRow
	query := `
		SELECT v.user_id, v.field_id, v.value, f.document_bucket
		FROM user_field_values v
		JOIN fields f ON v.field_id = f.id
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	byUser := make(map[int64]map[int64]models.FieldValueView, len(users))
	for _, row := range rows {
		if byUser[row.UserID] == nil {
			byUser[row.UserID] = make(map[int64]models.FieldValueView)
		}
		byUser[row.UserID][row.FieldID] = models.FieldValueView{
			Value:          row.Value,
			DocumentBucket: row.DocumentBucket.String,
		}
	}

	result := make([]models.UserWithValues, 0, len(users))
	for _, u := range users {
		values := byUser[u.ID]
		if values == nil {
			values = map[int64]models.FieldValueView{}
		}
		result = append(result, models.UserWithValues{User: u, Values: values})
	}
	return result, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
