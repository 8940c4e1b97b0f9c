package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config основной конфиг приложения, собирается из переменных окружения
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	Bot      BotConfig
	Database DatabaseConfig
	Minio    MinioConfig
	Web      WebConfig
}

type BotConfig struct {
	Token string `env:"BOT_TOKEN"`
	Debug bool   `env:"BOT_DEBUG" envDefault:"false"`
}

// DatabaseConfig конфигурация БД
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	Username string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"box-bot-db"`
	SSLMode  string `env:"DB_SSLMODE"`
}

// MinioConfig доступ к хранилищу документов пользователей
type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// WebConfig админка
type WebConfig struct {
	Addr       string `env:"WEB_ADDR" envDefault:":8080"`
	AdminToken string `env:"WEB_ADMIN_TOKEN"`
}

// Load загружает конфигурацию из .env и окружения
func Load() (*Config, error) {
	// .env опционален, в проде переменные приходят из окружения
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = sslModeFor(cfg.Environment)
	}

	return cfg, cfg.validate()
}

// validate проверяет обязательные параметры
func (c *Config) validate() error {
	var errs []string

	if c.Bot.Token == "" {
		errs = append(errs, "BOT_TOKEN is required")
	}
	if c.Database.Username == "" {
		errs = append(errs, "DB_USER is required")
	}
	if c.Database.Password == "" && c.Environment == "production" {
		errs = append(errs, "DB_PASSWORD is required in production")
	}
	if c.Web.AdminToken == "" && c.Environment == "production" {
		errs = append(errs, "WEB_ADMIN_TOKEN is required in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, ", "))
	}
	return nil
}

// sslModeFor режим SSL в зависимости от окружения
func sslModeFor(env string) string {
	if env == "production" {
		return "require"
	}
	return "disable"
}
