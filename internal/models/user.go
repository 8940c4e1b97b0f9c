package models

import (
	"database/sql"
	"time"
)

// User участник чата и его позиция в графе вопросов.
// CurrFieldID == NULL означает, что вопросов к пользователю нет.
type User struct {
	ID            int64          `db:"id" json:"id"`
	ChatID        int64          `db:"chat_id" json:"chat_id"`
	Username      sql.NullString `db:"username" json:"username"`
	Timestamp     time.Time      `db:"timestamp" json:"timestamp"`
	Status        UserStatus     `db:"status" json:"status"`
	HaveBannedBot bool           `db:"have_banned_bot" json:"have_banned_bot"`
	CurrFieldID   sql.NullInt64  `db:"curr_field_id" json:"curr_field_id"`
}

// UserFieldValue значение поля пользователя, пишется ровно один раз
// в момент принятия ответа
type UserFieldValue struct {
	ID      int64  `db:"id" json:"id"`
	UserID  int64  `db:"user_id" json:"user_id"`
	FieldID int64  `db:"field_id" json:"field_id"`
	Value   string `db:"value" json:"value"`
}

// UserFieldData пара ключ поля + значение для отображения записи пользователя
type UserFieldData struct {
	FieldKey string `db:"field_key" json:"field_key"`
	Value    string `db:"value" json:"value"`
}

// FieldValueView значение поля для админки вместе с бакетом документа
type FieldValueView struct {
	Value          string `json:"value"`
	DocumentBucket string `json:"document_bucket,omitempty"`
}

// UserWithValues строка таблицы пользователей в админке
type UserWithValues struct {
	User
	Values map[int64]FieldValueView `json:"values"`
}
