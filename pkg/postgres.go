package database

import (
	"fmt"

	"box-bot/internal/models/config"

	"github.com/jmoiron/sqlx"
)

// NewPostgres открывает и проверяет соединение с БД
func NewPostgres(cfg *config.Config) (*sqlx.DB, error) {
	c := cfg.Database

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Password,
		c.Name,
		c.SSLMode,
	)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}
