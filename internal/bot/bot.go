package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"box-bot/internal/models/config"
	"box-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

type Bot struct {
	api          *tgbotapi.BotAPI
	registration service.RegistrationService
	logger       *zap.Logger
	files        *http.Client

	// сериализация обработки сообщений одного пользователя: движок
	// рассчитан на не более одного сообщения пользователя в полёте
	mu        sync.Mutex
	chatLocks map[int64]*chatLock
}

// chatLock мьютекс одного чата со счётчиком держателей; запись в карте
// живёт только пока сообщения чата в обработке
type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewBot(cfg *config.Config, registration service.RegistrationService, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Bot.Debug

	logger.Info("🤖 бот инициализирован",
		zap.String("username", api.Self.UserName),
		zap.Bool("debug", cfg.Bot.Debug))

	return &Bot{
		api:          api,
		registration: registration,
		logger:       logger.Named("bot"),
		files:        &http.Client{Timeout: 30 * time.Second},
		chatLocks:    make(map[int64]*chatLock),
	}, nil
}

// Start запускает long polling до отмены контекста
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	b.logger.Info("🚀 бот запущен", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// acquireChat захватывает мьютекс конкретного чата
func (b *Bot) acquireChat(chatID int64) *chatLock {
	b.mu.Lock()
	lock, ok := b.chatLocks[chatID]
	if !ok {
		lock = &chatLock{}
		b.chatLocks[chatID] = lock
	}
	lock.refs++
	b.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// releaseChat отпускает мьютекс чата; последний держатель убирает запись
func (b *Bot) releaseChat(chatID int64, lock *chatLock) {
	lock.mu.Unlock()

	b.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(b.chatLocks, chatID)
	}
	b.mu.Unlock()
}
