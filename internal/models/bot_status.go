package models

// BotStatus единственная строка с режимом работы бота
type BotStatus struct {
	ID                 int64        `db:"id" json:"id"`
	BotStatus          BotRunStatus `db:"bot_status" json:"bot_status"`
	IsRegistrationOpen bool         `db:"is_registration_open" json:"is_registration_open"`
}

// KeyboardKey кнопка клавиатуры после завершения регистрации
type KeyboardKey struct {
	ID           int64             `db:"id" json:"id"`
	Key          string            `db:"key" json:"key"`
	Status       KeyboardKeyStatus `db:"status" json:"status"`
	TextMarkdown string            `db:"text_markdown" json:"text_markdown"`
	PhotoLink    string            `db:"photo_link" json:"photo_link"`
}
