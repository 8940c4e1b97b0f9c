package registration

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"box-bot/internal/models"
	"box-bot/internal/repository"
	"box-bot/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- фейки репозиториев ---

type fakeFields struct {
	branches map[string]int64
	fields   []models.Field
}

func (f *fakeFields) FirstInBranch(_ context.Context, branchKey string) (*models.Field, error) {
	branchID, ok := f.branches[branchKey]
	if !ok {
		return nil, fmt.Errorf("branch %q: %w", branchKey, repository.ErrNotFound)
	}
	var first *models.Field
	for i := range f.fields {
		fld := &f.fields[i]
		if fld.BranchID != branchID || fld.Status == models.FieldStatusInactive {
			continue
		}
		if first == nil || fld.OrderPlace < first.OrderPlace {
			first = fld
		}
	}
	if first == nil {
		return nil, fmt.Errorf("branch %q is empty: %w", branchKey, repository.ErrNotFound)
	}
	return first, nil
}

func (f *fakeFields) NextInBranch(_ context.Context, curr *models.Field) (*models.Field, error) {
	var next *models.Field
	for i := range f.fields {
		fld := &f.fields[i]
		if fld.BranchID != curr.BranchID || fld.Status == models.FieldStatusInactive {
			continue
		}
		if fld.OrderPlace <= curr.OrderPlace {
			continue
		}
		if next == nil || fld.OrderPlace < next.OrderPlace {
			next = fld
		}
	}
	return next, nil
}

func (f *fakeFields) ByID(_ context.Context, id int64) (*models.Field, error) {
	for i := range f.fields {
		if f.fields[i].ID == id {
			return &f.fields[i], nil
		}
	}
	return nil, fmt.Errorf("field id=%d: %w", id, repository.ErrNotFound)
}

func (f *fakeFields) ByKey(_ context.Context, key string) (*models.Field, error) {
	for i := range f.fields {
		if f.fields[i].Key == key {
			return &f.fields[i], nil
		}
	}
	return nil, fmt.Errorf("field key=%q: %w", key, repository.ErrNotFound)
}

func (f *fakeFields) ActiveMain(_ context.Context) ([]models.Field, error) {
	var main []models.Field
	for _, fld := range f.fields {
		if fld.Status == models.FieldStatusMain {
			main = append(main, fld)
		}
	}
	sort.Slice(main, func(i, j int) bool { return main[i].ID < main[j].ID })
	return main, nil
}

type fakeUsers struct {
	fields *fakeFields
	nextID int64
	users  map[int64]*models.User // chat_id -> user
	values []models.UserFieldValue
}

func newFakeUsers(fields *fakeFields) *fakeUsers {
	return &fakeUsers{fields: fields, nextID: 1, users: map[int64]*models.User{}}
}

func (f *fakeUsers) GetByChatID(_ context.Context, chatID int64) (*models.User, error) {
	user, ok := f.users[chatID]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUsers) Create(_ context.Context, chatID int64, username string, firstFieldID int64) (*models.User, error) {
	if _, ok := f.users[chatID]; ok {
		return nil, fmt.Errorf("chat_id=%d: %w", chatID, repository.ErrConflict)
	}
	user := &models.User{
		ID:          f.nextID,
		ChatID:      chatID,
		Username:    sql.NullString{String: username, Valid: username != ""},
		Timestamp:   time.Now(),
		Status:      models.UserStatusInactive,
		CurrFieldID: sql.NullInt64{Int64: firstFieldID, Valid: true},
	}
	f.nextID++
	f.users[chatID] = user
	return user, nil
}

func (f *fakeUsers) AdvanceWithAnswer(_ context.Context, p repository.AdvanceParams) error {
	for _, user := range f.users {
		if user.ID != p.UserID {
			continue
		}
		if !user.CurrFieldID.Valid || user.CurrFieldID.Int64 != p.CurrFieldID {
			return fmt.Errorf("stale position: %w", repository.ErrConflict)
		}
		if p.NextFieldID != nil {
			user.CurrFieldID = sql.NullInt64{Int64: *p.NextFieldID, Valid: true}
		} else {
			user.CurrFieldID = sql.NullInt64{}
		}
		if p.NewStatus != nil {
			user.Status = *p.NewStatus
		}
		f.values = append(f.values, models.UserFieldValue{
			ID: int64(len(f.values) + 1), UserID: p.UserID, FieldID: p.CurrFieldID, Value: p.Value,
		})
		return nil
	}
	return fmt.Errorf("user id=%d: %w", p.UserID, repository.ErrNotFound)
}

func (f *fakeUsers) ValueForKey(ctx context.Context, userID int64, fieldKey string) (string, error) {
	field, err := f.fields.ByKey(ctx, fieldKey)
	if err != nil {
		return "", err
	}
	for _, v := range f.values {
		if v.UserID == userID && v.FieldID == field.ID {
			return v.Value, nil
		}
	}
	return "", fmt.Errorf("key=%q: %w", fieldKey, repository.ErrNotFound)
}

func (f *fakeUsers) Values(ctx context.Context, userID int64) ([]models.UserFieldData, error) {
	var data []models.UserFieldData
	for _, v := range f.values {
		if v.UserID != userID {
			continue
		}
		field, err := f.fields.ByID(ctx, v.FieldID)
		if err != nil {
			return nil, err
		}
		data = append(data, models.UserFieldData{FieldKey: field.Key, Value: v.Value})
	}
	return data, nil
}

func (f *fakeUsers) SetBannedBot(_ context.Context, chatID int64, banned bool) error {
	if user, ok := f.users[chatID]; ok {
		user.HaveBannedBot = banned
	}
	return nil
}

func (f *fakeUsers) ListWithValues(_ context.Context) ([]models.UserWithValues, error) {
	return nil, nil
}

type fakeStatuses struct {
	status models.BotStatus
}

func (f *fakeStatuses) Get(_ context.Context) (*models.BotStatus, error) {
	clone := f.status
	return &clone, nil
}
func (f *fakeStatuses) SetStatus(_ context.Context, s models.BotRunStatus) error {
	f.status.BotStatus = s
	return nil
}
func (f *fakeStatuses) SetRegistrationOpen(_ context.Context, open bool) error {
	f.status.IsRegistrationOpen = open
	return nil
}

type fakeSettings struct {
	settings models.Settings
}

func (f *fakeSettings) Get(_ context.Context) (*models.Settings, error) {
	clone := f.settings
	return &clone, nil
}

type fakeKeys struct {
	keys []models.KeyboardKey
}

func (f *fakeKeys) Active(_ context.Context) ([]models.KeyboardKey, error) {
	var active []models.KeyboardKey
	for _, k := range f.keys {
		if k.Status == models.KeyboardKeyStatusNormal || k.Status == models.KeyboardKeyStatusMe {
			active = append(active, k)
		}
	}
	return active, nil
}

func (f *fakeKeys) ByText(_ context.Context, text string) (*models.KeyboardKey, error) {
	for i := range f.keys {
		if f.keys[i].Key == text && f.keys[i].Status != models.KeyboardKeyStatusInactive {
			return &f.keys[i], nil
		}
	}
	return nil, nil
}

type uploadCall struct {
	Bucket      string
	Filename    string
	ContentType string
	Size        int
}

type fakeStore struct {
	uploads []uploadCall
}

func (f *fakeStore) Upload(_ context.Context, bucket, filename string, data []byte, contentType string) error {
	f.uploads = append(f.uploads, uploadCall{bucket, filename, contentType, len(data)})
	return nil
}

func (f *fakeStore) Fetch(_ context.Context, bucket, filename string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("not stored: %s/%s", bucket, filename)
}

// --- окружение тестов ---

type testEnv struct {
	svc      service.RegistrationService
	fields   *fakeFields
	users    *fakeUsers
	statuses *fakeStatuses
	store    *fakeStore
	keys     *fakeKeys
}

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fields := &fakeFields{
		branches: map[string]int64{"main": 1},
		fields: []models.Field{
			{ID: 1, Key: "fio", BranchID: 1, OrderPlace: 1, Status: models.FieldStatusMain,
				QuestionMarkdown: "Как тебя зовут?"},
			{ID: 2, Key: "grade", BranchID: 1, OrderPlace: 2, Status: models.FieldStatusMain,
				QuestionMarkdown: "Какой у тебя разряд?",
				AnswerOptions:    nullStr("первый\nвторой\nтретий")},
			{ID: 3, Key: "passport", BranchID: 1, OrderPlace: 3, Status: models.FieldStatusNormal,
				QuestionMarkdown: "Пришли скан паспорта",
				DocumentBucket:   nullStr("docs")},
		},
	}
	users := newFakeUsers(fields)
	statuses := &fakeStatuses{status: models.BotStatus{ID: 1, BotStatus: models.BotRunOn, IsRegistrationOpen: true}}
	settings := &fakeSettings{settings: models.Settings{
		ID:                                1,
		FirstFieldBranch:                  "main",
		UserDocumentNameField:             "fio",
		StartTemplate:                     "Привет!\n\n{template}",
		RestartUserTemplate:               "Продолжим.\n\n{template}",
		HelpUserTemplate:                  "Вопрос:\n\n{template}",
		HelpRestartOnRegistrationComplete: "Регистрация уже завершена.",
		RegistrationComplete:              "Готово!",
		RegistrationIsOver:                "Регистрация закрыта.",
		ServiceModeMessage:                "Сервисный режим.",
		StrangeUserError:                  "Не узнаю тебя.",
		EditedMessageReply:                "Ответы нельзя менять.",
		ErrorReply:                        "Что-то пошло не так.",
	}}
	keys := &fakeKeys{keys: []models.KeyboardKey{
		{ID: 1, Key: "О клубе", Status: models.KeyboardKeyStatusNormal, TextMarkdown: "Мы клуб."},
		{ID: 2, Key: "Обо мне", Status: models.KeyboardKeyStatusMe},
		{ID: 3, Key: "Скрытая", Status: models.KeyboardKeyStatusInactive, TextMarkdown: "нет"},
		{ID: 4, Key: "Позже", Status: models.KeyboardKeyStatusDeferred, TextMarkdown: "потом"},
	}}
	store := &fakeStore{}

	svc := NewRegistrationService(fields, users, statuses, settings, keys, store, zap.NewNop())
	return &testEnv{svc: svc, fields: fields, users: users, statuses: statuses, store: store, keys: keys}
}

func text(chatID int64, s string) models.Inbound {
	return models.Inbound{ChatID: chatID, Username: "tester", Kind: models.PayloadText, Text: s}
}

func attachment(chatID int64, data []byte) models.Inbound {
	return models.Inbound{ChatID: chatID, Username: "tester", Kind: models.PayloadAttachment, Data: data}
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

// --- тесты ---

func TestStartCreatesUserOnFirstField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reply, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "Привет!\n\nКак тебя зовут?", reply.Text)
	assert.Empty(t, reply.Options)

	user := env.users.users[100]
	require.NotNil(t, user)
	assert.Equal(t, models.UserStatusInactive, user.Status)
	require.True(t, user.CurrFieldID.Valid)
	assert.Equal(t, int64(1), user.CurrFieldID.Int64)
	// на входе нового пользователя ответ не записывается
	assert.Empty(t, env.users.values)
}

func TestStartWhenRegistrationClosed(t *testing.T) {
	env := newTestEnv(t)
	env.statuses.status.IsRegistrationOpen = false

	reply, err := env.svc.HandleCommand(context.Background(), text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "Регистрация закрыта.", reply.Text)
	assert.Empty(t, env.users.users)
}

func TestStartOnEmptyBranchIsConfigurationError(t *testing.T) {
	env := newTestEnv(t)
	env.fields.fields = nil

	_, err := env.svc.HandleCommand(context.Background(), text(100, "/start"), models.CommandStart)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Полный проход ветки [fio(main), grade(main), passport(normal)]:
// ответ на fio оставляет статус inactive, ответ на grade активирует
// пользователя (выход из main), ответ на passport завершает ветку.
func TestFullBranchTraversal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)

	reply, err := env.svc.HandleMessage(ctx, text(100, "Иванов Иван"))
	require.NoError(t, err)
	assert.Equal(t, "Какой у тебя разряд?", reply.Text)
	assert.Equal(t, []string{"первый", "второй", "третий"}, reply.Options)

	user := env.users.users[100]
	assert.Equal(t, models.UserStatusInactive, user.Status)
	assert.Equal(t, int64(2), user.CurrFieldID.Int64)
	require.Len(t, env.users.values, 1)
	assert.Equal(t, int64(1), env.users.values[0].FieldID)

	reply, err = env.svc.HandleMessage(ctx, text(100, "второй"))
	require.NoError(t, err)
	assert.Equal(t, "Пришли скан паспорта", reply.Text)

	// grade - последнее main-поле, пользователь активируется
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.Equal(t, int64(3), user.CurrFieldID.Int64)

	reply, err = env.svc.HandleMessage(ctx, attachment(100, pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "Готово!", reply.Text)
	assert.Equal(t, []string{"О клубе", "Обо мне"}, reply.Options)

	assert.False(t, user.CurrFieldID.Valid)
	assert.Equal(t, models.UserStatusActive, user.Status)
	require.Len(t, env.users.values, 3)
}

func TestTextForDocumentFieldIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	env.users.users[100].CurrFieldID = sql.NullInt64{Int64: 3, Valid: true}

	reply, err := env.svc.HandleMessage(ctx, text(100, "вот мой паспорт"))
	require.NoError(t, err)
	// вопрос переспрашивается без изменений
	assert.Equal(t, "Пришли скан паспорта", reply.Text)

	assert.Equal(t, int64(3), env.users.users[100].CurrFieldID.Int64)
	assert.Empty(t, env.users.values)
	assert.Empty(t, env.store.uploads)
}

func TestAttachmentForTextFieldIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)

	reply, err := env.svc.HandleMessage(ctx, attachment(100, pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "Как тебя зовут?", reply.Text)
	assert.Empty(t, env.users.values)
}

func TestAcceptedAttachmentIsUploadedUnderDocumentName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	_, err = env.svc.HandleMessage(ctx, text(100, "Иванов"))
	require.NoError(t, err)
	_, err = env.svc.HandleMessage(ctx, text(100, "второй"))
	require.NoError(t, err)

	_, err = env.svc.HandleMessage(ctx, attachment(100, pngBytes))
	require.NoError(t, err)

	require.Len(t, env.store.uploads, 1)
	upload := env.store.uploads[0]
	assert.Equal(t, "docs", upload.Bucket)
	assert.Equal(t, "Иванов.png", upload.Filename)
	assert.Equal(t, "image/png", upload.ContentType)

	// сохранённое значение совпадает с именем загруженного файла
	last := env.users.values[len(env.users.values)-1]
	assert.Equal(t, "Иванов.png", last.Value)
}

// Стикер или голосовое на текущий вопрос: ничего не записывается,
// позиция не сдвигается, вопрос переспрашивается
func TestUnsupportedPayloadIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)

	in := models.Inbound{ChatID: 100, Username: "tester", Kind: models.PayloadUnsupported}
	reply, err := env.svc.HandleMessage(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Как тебя зовут?", reply.Text)

	assert.Equal(t, int64(1), env.users.users[100].CurrFieldID.Int64)
	assert.Empty(t, env.users.values)
	assert.Empty(t, env.store.uploads)
}

// Кнопки со статусом deferred всегда скрыты с клавиатуры
func TestDeferredKeyHiddenFromKeyboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	env.users.users[100].CurrFieldID = sql.NullInt64{}

	reply, err := env.svc.HandleMessage(ctx, text(100, "О клубе"))
	require.NoError(t, err)
	assert.Equal(t, []string{"О клубе", "Обо мне"}, reply.Options)
	assert.NotContains(t, reply.Options, "Позже")
}

func TestMessageFromUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	reply, err := env.svc.HandleMessage(context.Background(), text(999, "привет"))
	require.NoError(t, err)
	assert.Equal(t, "Не узнаю тебя.", reply.Text)
}

func TestHelpRestatesCurrentQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)

	reply, err := env.svc.HandleCommand(ctx, text(100, "/help"), models.CommandHelp)
	require.NoError(t, err)
	assert.Equal(t, "Вопрос:\n\nКак тебя зовут?", reply.Text)
}

func TestHelpAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	env.users.users[100].CurrFieldID = sql.NullInt64{}

	reply, err := env.svc.HandleCommand(ctx, text(100, "/help"), models.CommandHelp)
	require.NoError(t, err)
	assert.Equal(t, "Вопрос:\n\nРегистрация уже завершена.", reply.Text)
	assert.Equal(t, []string{"О клубе", "Обо мне"}, reply.Options)
}

func TestKeyboardKeyReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	env.users.users[100].CurrFieldID = sql.NullInt64{}

	reply, err := env.svc.HandleMessage(ctx, text(100, "О клубе"))
	require.NoError(t, err)
	assert.Equal(t, "Мы клуб.", reply.Text)
	assert.Equal(t, []string{"О клубе", "Обо мне"}, reply.Options)
}

func TestMeKeyShowsRecordedValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	_, err = env.svc.HandleMessage(ctx, text(100, "Иванов"))
	require.NoError(t, err)
	env.users.users[100].CurrFieldID = sql.NullInt64{}

	reply, err := env.svc.HandleMessage(ctx, text(100, "Обо мне"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "*fio*: Иванов")
}

func TestUnknownTextWithoutPendingFieldIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	env.users.users[100].CurrFieldID = sql.NullInt64{}

	reply, err := env.svc.HandleMessage(ctx, text(100, "что-то непонятное"))
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestServiceModeReply(t *testing.T) {
	env := newTestEnv(t)
	env.statuses.status.BotStatus = models.BotRunService

	reply, err := env.svc.HandleMessage(context.Background(), text(100, "привет"))
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "Сервисный режим.", reply.Text)
}

func TestBotOffIsSilent(t *testing.T) {
	env := newTestEnv(t)
	env.statuses.status.BotStatus = models.BotRunOff

	reply, err := env.svc.HandleMessage(context.Background(), text(100, "привет"))
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Empty(t, reply.Text)
}

func TestStaleAdvanceSurfacesConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)

	// имитация гонки: позиция в БД ушла вперёд относительно прочитанной
	stored := env.users.users[100]
	loaded := *stored
	stored.CurrFieldID = sql.NullInt64{Int64: 2, Valid: true}

	err = env.users.AdvanceWithAnswer(ctx, repository.AdvanceParams{
		UserID:      loaded.ID,
		CurrFieldID: loaded.CurrFieldID.Int64,
		Value:       "x",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestEditedMessageReply(t *testing.T) {
	env := newTestEnv(t)

	reply, err := env.svc.HandleEdited(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "Ответы нельзя менять.", reply.Text)
}

func TestInboundClearsBanFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleCommand(ctx, text(100, "/start"), models.CommandStart)
	require.NoError(t, err)
	env.users.users[100].HaveBannedBot = true

	_, err = env.svc.HandleMessage(ctx, text(100, "Иванов"))
	require.NoError(t, err)
	assert.False(t, env.users.users[100].HaveBannedBot)
}
