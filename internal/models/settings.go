package models

// Settings тексты и ключи потока регистрации, правятся администратором в БД.
// Шаблоны содержат плейсхолдер {template}, куда подставляется текущий вопрос.
type Settings struct {
	ID int64 `db:"id" json:"id"`

	FirstFieldBranch      string `db:"first_field_branch" json:"first_field_branch"`
	UserDocumentNameField string `db:"user_document_name_field" json:"user_document_name_field"`

	StartTemplate                     string `db:"start_template" json:"start_template"`
	RestartUserTemplate               string `db:"restart_user_template" json:"restart_user_template"`
	HelpUserTemplate                  string `db:"help_user_template" json:"help_user_template"`
	HelpRestartOnRegistrationComplete string `db:"help_restart_on_registration_complete" json:"help_restart_on_registration_complete"`

	RegistrationComplete string `db:"registration_complete" json:"registration_complete"`
	RegistrationIsOver   string `db:"registration_is_over" json:"registration_is_over"`
	ServiceModeMessage   string `db:"service_mode_message" json:"service_mode_message"`

	StrangeUserError   string `db:"strange_user_error" json:"strange_user_error"`
	EditedMessageReply string `db:"edited_message_reply" json:"edited_message_reply"`
	ErrorReply         string `db:"error_reply" json:"error_reply"`
}
