package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"box-bot/internal/models"
	"box-bot/internal/objectstore"
	"box-bot/internal/repository"
	"box-bot/internal/service"

	"go.uber.org/zap"
)

// opTimeout предел на одну операцию движка, включая все обращения к БД
const opTimeout = 5 * time.Second

type registrationService struct {
	fields   repository.FieldRepository
	users    repository.UserRepository
	statuses repository.BotStatusRepository
	settings repository.SettingsRepository
	keys     repository.KeyboardKeyRepository
	store    objectstore.Store
	logger   *zap.Logger
}

func NewRegistrationService(
	fields repository.FieldRepository,
	users repository.UserRepository,
	statuses repository.BotStatusRepository,
	settings repository.SettingsRepository,
	keys repository.KeyboardKeyRepository,
	store objectstore.Store,
	logger *zap.Logger,
) service.RegistrationService {
	return &registrationService{
		fields:   fields,
		users:    users,
		statuses: statuses,
		settings: settings,
		keys:     keys,
		store:    store,
		logger:   logger.Named("registration"),
	}
}

func (s *registrationService) HandleCommand(ctx context.Context, in models.Inbound, cmd models.Command) (*models.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	st, bs, blocked, err := s.gate(ctx)
	if err != nil || blocked != nil {
		return blocked, err
	}

	user, err := s.users.GetByChatID(ctx, in.ChatID)
	if err != nil {
		return nil, fmt.Errorf("get user chat_id=%d: %w", in.ChatID, err)
	}

	if user == nil {
		return s.startNewUser(ctx, in, cmd, st, bs)
	}
	s.clearBanFlag(ctx, user)

	var curr *models.Field
	if user.CurrFieldID.Valid {
		if curr, err = s.fields.ByID(ctx, user.CurrFieldID.Int64); err != nil {
			return nil, fmt.Errorf("current field of chat_id=%d: %w", in.ChatID, err)
		}
	}

	// таблица диспетчеризации команд существующего пользователя
	handlers := map[models.Command]func() (*models.Reply, error){
		models.CommandStart: func() (*models.Reply, error) {
			return s.restatePrompt(ctx, st.RestartUserTemplate, st, curr)
		},
		models.CommandHelp: func() (*models.Reply, error) {
			return s.restatePrompt(ctx, st.HelpUserTemplate, st, curr)
		},
	}

	handle, ok := handlers[cmd]
	if !ok {
		s.logger.Warn("unknown command",
			zap.Int64("chat_id", in.ChatID), zap.String("username", in.Username))
		return nil, nil
	}
	return handle()
}

// startNewUser точка входа нового пользователя: позиционируем его на первом
// поле стартовой ветки и задаём первый вопрос. Ответ здесь не записывается.
func (s *registrationService) startNewUser(ctx context.Context, in models.Inbound, cmd models.Command, st *models.Settings, bs *models.BotStatus) (*models.Reply, error) {
	if cmd == models.CommandUnknown {
		s.logger.Warn("unknown command from unknown user", zap.Int64("chat_id", in.ChatID))
		return nil, nil
	}
	if !bs.IsRegistrationOpen {
		s.logger.Warn("registration is closed",
			zap.Int64("chat_id", in.ChatID), zap.String("username", in.Username))
		return &models.Reply{Text: st.RegistrationIsOver}, nil
	}

	first, err := s.fields.FirstInBranch(ctx, st.FirstFieldBranch)
	if err != nil {
		// пустая стартовая ветка - ошибка конфигурации каталога, не пользователя
		return nil, fmt.Errorf("start branch %q: %w", st.FirstFieldBranch, err)
	}

	if _, err := s.users.Create(ctx, in.ChatID, in.Username, first.ID); err != nil {
		return nil, fmt.Errorf("create user chat_id=%d: %w", in.ChatID, err)
	}

	s.logger.Info("new user registered",
		zap.Int64("chat_id", in.ChatID),
		zap.String("username", in.Username),
		zap.String("first_field", first.Key))
	return TemplatedPromptReply(st.StartTemplate, first), nil
}

func (s *registrationService) HandleMessage(ctx context.Context, in models.Inbound) (*models.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	st, _, blocked, err := s.gate(ctx)
	if err != nil || blocked != nil {
		return blocked, err
	}

	user, err := s.users.GetByChatID(ctx, in.ChatID)
	if err != nil {
		return nil, fmt.Errorf("get user chat_id=%d: %w", in.ChatID, err)
	}
	if user == nil {
		s.logger.Warn("message from unknown user",
			zap.Int64("chat_id", in.ChatID), zap.String("username", in.Username))
		return &models.Reply{Text: st.StrangeUserError}, nil
	}
	s.clearBanFlag(ctx, user)

	if user.CurrFieldID.Valid {
		return s.advance(ctx, in, user, st)
	}
	return s.handleKeyboardKey(ctx, in, user)
}

// advance один шаг машины состояний: классификация ответа, вычисление
// следующего поля, атомарная запись перехода вместе с ответом
func (s *registrationService) advance(ctx context.Context, in models.Inbound, user *models.User, st *models.Settings) (*models.Reply, error) {
	curr, err := s.fields.ByID(ctx, user.CurrFieldID.Int64)
	if err != nil {
		return nil, fmt.Errorf("current field of chat_id=%d: %w", in.ChatID, err)
	}

	var docStem string
	if curr.ExpectsDocument() && in.Kind == models.PayloadAttachment {
		docStem, err = s.users.ValueForKey(ctx, user.ID, st.UserDocumentNameField)
		if errors.Is(err, repository.ErrNotFound) {
			// поле имени документа ещё не заполнено
			docStem = strconv.FormatInt(user.ChatID, 10)
		} else if err != nil {
			return nil, fmt.Errorf("document stem for chat_id=%d: %w", in.ChatID, err)
		}
	}

	value, rejection := Classify(curr, in, docStem)
	if rejection != nil {
		// несовпадение вида ответа: никаких записей, вопрос переспрашивается
		s.logger.Info("answer rejected",
			zap.Int64("chat_id", in.ChatID),
			zap.String("field", curr.Key),
			zap.String("reason", string(rejection.Reason)))
		return PromptReply(curr), nil
	}

	next, err := s.fields.NextInBranch(ctx, curr)
	if err != nil {
		return nil, fmt.Errorf("next field after %q: %w", curr.Key, err)
	}

	adv := repository.AdvanceParams{
		UserID:      user.ID,
		CurrFieldID: curr.ID,
		Value:       value,
	}
	if next != nil {
		adv.NextFieldID = &next.ID
	}
	// выход из обязательной ветки активирует пользователя; обратного перехода нет
	if user.Status == models.UserStatusInactive &&
		curr.Status == models.FieldStatusMain &&
		(next == nil || next.Status != models.FieldStatusMain) {
		active := models.UserStatusActive
		adv.NewStatus = &active
	}

	if curr.ExpectsDocument() {
		err = s.store.Upload(ctx, curr.DocumentBucket.String, value, in.Data, SniffContentType(in.Data))
		if err != nil {
			return nil, fmt.Errorf("upload document for chat_id=%d: %w", in.ChatID, err)
		}
	}

	if err := s.users.AdvanceWithAnswer(ctx, adv); err != nil {
		return nil, fmt.Errorf("advance chat_id=%d from field %q: %w", in.ChatID, curr.Key, err)
	}

	if next != nil {
		s.logger.Info("answer accepted",
			zap.Int64("chat_id", in.ChatID),
			zap.String("field", curr.Key),
			zap.String("next_field", next.Key))
		return PromptReply(next), nil
	}

	s.logger.Info("branch completed",
		zap.Int64("chat_id", in.ChatID), zap.String("field", curr.Key))
	keys, err := s.keys.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyboard keys: %w", err)
	}
	return CompletionReply(st.RegistrationComplete, keys), nil
}

// handleKeyboardKey сообщение без ожидаемого вопроса - это либо нажатие
// кнопки клавиатуры, либо мусор
func (s *registrationService) handleKeyboardKey(ctx context.Context, in models.Inbound, user *models.User) (*models.Reply, error) {
	if in.Kind != models.PayloadText {
		s.logger.Warn("unexpected attachment without pending field", zap.Int64("chat_id", in.ChatID))
		return nil, nil
	}

	key, err := s.keys.ByText(ctx, in.Text)
	if err != nil {
		return nil, fmt.Errorf("keyboard key lookup: %w", err)
	}
	if key == nil {
		s.logger.Warn("unknown text message",
			zap.Int64("chat_id", in.ChatID), zap.String("username", in.Username))
		return nil, nil
	}

	keys, err := s.keys.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyboard keys: %w", err)
	}

	if key.Status == models.KeyboardKeyStatusMe {
		values, err := s.users.Values(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("values of chat_id=%d: %w", in.ChatID, err)
		}
		return UserRecordReply(values, keys), nil
	}

	return &models.Reply{
		Text:      key.TextMarkdown,
		PhotoLink: key.PhotoLink,
		Options:   keyboardOptions(keys),
	}, nil
}

func (s *registrationService) HandleEdited(ctx context.Context, chatID int64) (*models.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	s.logger.Info("edited message ignored", zap.Int64("chat_id", chatID))
	return &models.Reply{Text: st.EditedMessageReply}, nil
}

func (s *registrationService) ErrorReply(ctx context.Context) *models.Reply {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	st, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Error("settings unavailable for error reply", zap.Error(err))
		return nil
	}
	return &models.Reply{Text: st.ErrorReply}
}

func (s *registrationService) SetBannedBot(ctx context.Context, chatID int64, banned bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.users.SetBannedBot(ctx, chatID, banned)
}

// restatePrompt переспрашивает текущий вопрос через заданный шаблон;
// без текущего вопроса отвечает подсказкой о завершённой регистрации
func (s *registrationService) restatePrompt(ctx context.Context, template string, st *models.Settings, curr *models.Field) (*models.Reply, error) {
	if curr != nil {
		return TemplatedPromptReply(template, curr), nil
	}
	keys, err := s.keys.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyboard keys: %w", err)
	}
	return &models.Reply{
		Text:    RenderTemplate(template, st.HelpRestartOnRegistrationComplete),
		Options: keyboardOptions(keys),
	}, nil
}

// gate проверки режима бота перед любой обработкой: off - молчим,
// service - отвечаем сервисным сообщением
func (s *registrationService) gate(ctx context.Context) (*models.Settings, *models.BotStatus, *models.Reply, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("settings: %w", err)
	}
	bs, err := s.statuses.Get(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("bot status: %w", err)
	}

	switch bs.BotStatus {
	case models.BotRunOff, models.BotRunRestart, models.BotRunRestarting:
		return nil, nil, &models.Reply{}, nil
	case models.BotRunService:
		return nil, nil, &models.Reply{Text: st.ServiceModeMessage}, nil
	}
	return st, bs, nil, nil
}

// clearBanFlag пользователь снова пишет боту - флаг блокировки снимается
func (s *registrationService) clearBanFlag(ctx context.Context, user *models.User) {
	if !user.HaveBannedBot {
		return
	}
	if err := s.users.SetBannedBot(ctx, user.ChatID, false); err != nil {
		s.logger.Warn("clear ban flag", zap.Int64("chat_id", user.ChatID), zap.Error(err))
	}
}
