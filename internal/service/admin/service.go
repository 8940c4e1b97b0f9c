package admin

import (
	"context"
	"fmt"
	"time"

	"box-bot/internal/models"
	"box-bot/internal/objectstore"
	"box-bot/internal/repository"
	"box-bot/internal/service"

	"go.uber.org/zap"
)

const opTimeout = 10 * time.Second

type adminService struct {
	fields   repository.FieldRepository
	users    repository.UserRepository
	statuses repository.BotStatusRepository
	settings repository.SettingsRepository
	store    objectstore.Store
	logger   *zap.Logger
}

func NewAdminService(
	fields repository.FieldRepository,
	users repository.UserRepository,
	statuses repository.BotStatusRepository,
	settings repository.SettingsRepository,
	store objectstore.Store,
	logger *zap.Logger,
) service.AdminService {
	return &adminService{
		fields:   fields,
		users:    users,
		statuses: statuses,
		settings: settings,
		store:    store,
		logger:   logger.Named("admin"),
	}
}

func (s *adminService) BotStatus(ctx context.Context) (*models.BotStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.statuses.Get(ctx)
}

func (s *adminService) ApplyAction(ctx context.Context, action string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var err error
	switch action {
	case "turn_on":
		err = s.statuses.SetStatus(ctx, models.BotRunOn)
	case "turn_off":
		err = s.statuses.SetStatus(ctx, models.BotRunOff)
	case "restart":
		err = s.statuses.SetStatus(ctx, models.BotRunRestart)
	case "activate_registration":
		err = s.statuses.SetRegistrationOpen(ctx, true)
	case "deactivate_registration":
		err = s.statuses.SetRegistrationOpen(ctx, false)
	default:
		return fmt.Errorf("unknown bot action %q", action)
	}
	if err != nil {
		return fmt.Errorf("apply action %q: %w", action, err)
	}

	s.logger.Info("bot action applied", zap.String("action", action))
	return nil
}

func (s *adminService) MainFields(ctx context.Context) ([]models.Field, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.fields.ActiveMain(ctx)
}

func (s *adminService) Users(ctx context.Context) ([]models.UserWithValues, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.users.ListWithValues(ctx)
}

func (s *adminService) Settings(ctx context.Context) (*models.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.settings.Get(ctx)
}

func (s *adminService) FetchDocument(ctx context.Context, bucket, filename string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.store.Fetch(ctx, bucket, filename)
}
