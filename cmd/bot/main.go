package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"box-bot/internal/bot"
	"box-bot/internal/models/config"
	"box-bot/internal/objectstore"
	"box-bot/internal/repository/botstatus"
	"box-bot/internal/repository/field"
	"box-bot/internal/repository/keyboard"
	"box-bot/internal/repository/settings"
	"box-bot/internal/repository/user"
	"box-bot/internal/service"
	admin_service "box-bot/internal/service/admin"
	registration_service "box-bot/internal/service/registration"
	"box-bot/internal/web"
	database "box-bot/pkg"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			database.NewPostgres,
			objectstore.NewMinio,
			field.NewFieldRepository,
			user.NewUserRepository,
			botstatus.NewBotStatusRepository,
			settings.NewSettingsRepository,
			keyboard.NewKeyboardKeyRepository,
			registration_service.NewRegistrationService,
			admin_service.NewAdminService,
			bot.NewBot,
			newWebHandler,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Invoke(run),
	)
	app.Run()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newWebHandler(admin service.AdminService, cfg *config.Config, logger *zap.Logger) (*web.Handler, error) {
	return web.NewHandler(admin, cfg.Web.AdminToken, logger)
}

// run связывает жизненный цикл приложения: long polling бота и HTTP админки
// стартуют вместе и гасятся вместе
func run(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	db *sqlx.DB,
	b *bot.Bot,
	h *web.Handler,
	logger *zap.Logger,
) {
	srv := &http.Server{Addr: cfg.Web.Addr, Handler: h.Router()}
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("❌ бот остановился", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("❌ админка остановилась", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			logger.Info("🚀 запуск",
				zap.String("environment", cfg.Environment),
				zap.String("web_addr", cfg.Web.Addr))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := srv.Shutdown(stopCtx); err != nil {
				logger.Warn("остановка админки", zap.Error(err))
			}
			logger.Info("👋 корректное завершение работы")
			return db.Close()
		},
	})
}
