package service

import (
	"context"

	"box-bot/internal/models"
)

// RegistrationService машина состояний регистрации: валидация ответа,
// запись значения и выбор следующего вопроса
type RegistrationService interface {
	// HandleCommand обрабатывает /start и /help: для нового пользователя
	// /start создаёт запись и задаёт первый вопрос, для существующего
	// переспрашивает текущий вопрос
	HandleCommand(ctx context.Context, in models.Inbound, cmd models.Command) (*models.Reply, error)
	// HandleMessage обрабатывает ответ на текущий вопрос либо нажатие
	// кнопки клавиатуры после завершения регистрации
	HandleMessage(ctx context.Context, in models.Inbound) (*models.Reply, error)
	// HandleEdited ответ на отредактированное сообщение, ответы не изменяемы
	HandleEdited(ctx context.Context, chatID int64) (*models.Reply, error)
	// ErrorReply настроенный текст ответа при внутренней ошибке, nil если недоступен
	ErrorReply(ctx context.Context) *models.Reply
	// SetBannedBot отметка о блокировке бота пользователем, ставится транспортом
	SetBannedBot(ctx context.Context, chatID int64, banned bool) error
}

// AdminService read-модель админки и переключатели режима бота
type AdminService interface {
	BotStatus(ctx context.Context) (*models.BotStatus, error)
	// ApplyAction turn_on | turn_off | restart | activate_registration | deactivate_registration
	ApplyAction(ctx context.Context, action string) error
	MainFields(ctx context.Context) ([]models.Field, error)
	Users(ctx context.Context) ([]models.UserWithValues, error)
	Settings(ctx context.Context) (*models.Settings, error)
	// FetchDocument содержимое и content-type загруженного документа
	FetchDocument(ctx context.Context, bucket, filename string) ([]byte, string, error)
}
