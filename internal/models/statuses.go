package models

// BotRunStatus управляет режимом работы бота, переключается из админки.
type BotRunStatus string

const (
	BotRunOn         BotRunStatus = "on"
	BotRunOff        BotRunStatus = "off"
	BotRunService    BotRunStatus = "service"
	BotRunRestart    BotRunStatus = "restart"
	BotRunRestarting BotRunStatus = "restarting"
)

type UserStatus string

const (
	UserStatusInactive UserStatus = "inactive" // регистрация основной ветки не завершена
	UserStatusActive   UserStatus = "active"
)

type FieldStatus string

const (
	FieldStatusInactive FieldStatus = "inactive" // исключено из обхода
	FieldStatusNormal   FieldStatus = "normal"
	FieldStatusMain     FieldStatus = "main" // поле обязательной ветки
)

type FieldBranchStatus string

const (
	FieldBranchStatusInactive FieldBranchStatus = "inactive"
	FieldBranchStatusNormal   FieldBranchStatus = "normal"
)

type KeyboardKeyStatus string

const (
	KeyboardKeyStatusInactive KeyboardKeyStatus = "inactive"
	KeyboardKeyStatusNormal   KeyboardKeyStatus = "normal"
	KeyboardKeyStatusDeferred KeyboardKeyStatus = "deferred" // заготовка, скрыта до ручного перевода в normal
	KeyboardKeyStatusMe       KeyboardKeyStatus = "me"
)
