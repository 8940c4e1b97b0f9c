package models

import "database/sql"

// FieldBranch именованная упорядоченная группа полей (подпоток регистрации)
type FieldBranch struct {
	ID     int64             `db:"id" json:"id"`
	Key    string            `db:"key" json:"key"`
	Status FieldBranchStatus `db:"status" json:"status"`
}

// Field один вопрос регистрации. DocumentBucket != NULL означает,
// что ответом должен быть вложенный документ, а не текст.
type Field struct {
	ID               int64          `db:"id" json:"id"`
	Key              string         `db:"key" json:"key"`
	BranchID         int64          `db:"branch_id" json:"branch_id"`
	OrderPlace       int            `db:"order_place" json:"order_place"`
	Status           FieldStatus    `db:"status" json:"status"`
	QuestionMarkdown string         `db:"question_markdown" json:"question_markdown"`
	AnswerOptions    sql.NullString `db:"answer_options" json:"answer_options"`
	DocumentBucket   sql.NullString `db:"document_bucket" json:"document_bucket"`
}

// ExpectsDocument поле ожидает вложение вместо текста
func (f *Field) ExpectsDocument() bool {
	return f.DocumentBucket.Valid && f.DocumentBucket.String != ""
}
