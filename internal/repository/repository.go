package repository

import (
	"context"
	"errors"

	"box-bot/internal/models"
)

// ErrNotFound запись не существует. Для пустой стартовой ветки это
// фатальная ошибка конфигурации каталога полей.
var ErrNotFound = errors.New("not found")

// ErrConflict конкурирующая запись нарушила инвариант, операция отменена целиком
var ErrConflict = errors.New("conflict")

// AdvanceParams атомарный переход пользователя к следующему полю.
// CurrFieldID - оптимистическая проверка: переход применяется только если
// пользователь всё ещё стоит на этом поле.
type AdvanceParams struct {
	UserID      int64
	CurrFieldID int64
	Value       string             // принятый ответ на текущее поле
	NextFieldID *int64             // nil - вопросов больше нет
	NewStatus   *models.UserStatus // nil - статус не меняется
}

// FieldRepository каталог вопросов, только чтение
type FieldRepository interface {
	// FirstInBranch активное поле с минимальным order_place в ветке.
	// ErrNotFound если в ветке нет полей - регистрацию начать нельзя.
	FirstInBranch(ctx context.Context, branchKey string) (*models.Field, error)
	// NextInBranch следующее не-inactive поле той же ветки, (nil, nil) когда ветка исчерпана
	NextInBranch(ctx context.Context, curr *models.Field) (*models.Field, error)
	ByID(ctx context.Context, id int64) (*models.Field, error)
	ByKey(ctx context.Context, key string) (*models.Field, error)
	// ActiveMain поля обязательной ветки для таблицы пользователей в админке
	ActiveMain(ctx context.Context) ([]models.Field, error)
}

// UserRepository прогресс пользователей и их ответы
type UserRepository interface {
	// GetByChatID (nil, nil) если пользователя нет
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	// Create новый пользователь со статусом inactive на первом поле.
	// ErrConflict если chat_id уже занят.
	Create(ctx context.Context, chatID int64, username string, firstFieldID int64) (*models.User, error)
	// AdvanceWithAnswer переход + запись ответа одной транзакцией.
	// ErrConflict если пользователь уже не стоит на ожидаемом поле.
	AdvanceWithAnswer(ctx context.Context, p AdvanceParams) error
	// ValueForKey ранее записанный ответ по ключу поля, ErrNotFound если ответа нет
	ValueForKey(ctx context.Context, userID int64, fieldKey string) (string, error)
	// Values все ответы пользователя в порядке полей
	Values(ctx context.Context, userID int64) ([]models.UserFieldData, error)
	SetBannedBot(ctx context.Context, chatID int64, banned bool) error
	// ListWithValues все пользователи с ответами для админки
	ListWithValues(ctx context.Context) ([]models.UserWithValues, error)
}

// BotStatusRepository режим работы бота
type BotStatusRepository interface {
	Get(ctx context.Context) (*models.BotStatus, error)
	SetStatus(ctx context.Context, status models.BotRunStatus) error
	SetRegistrationOpen(ctx context.Context, open bool) error
}

// SettingsRepository тексты и ключи потока, правятся администратором
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// KeyboardKeyRepository кнопки клавиатуры зарегистрированного пользователя
type KeyboardKeyRepository interface {
	// Active кнопки со статусом normal и me в порядке id
	Active(ctx context.Context) ([]models.KeyboardKey, error)
	// ByText (nil, nil) если текст не совпал ни с одной кнопкой
	ByText(ctx context.Context, text string) (*models.KeyboardKey, error)
}
