package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DB_USER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, ":8080", cfg.Web.Addr)
	assert.Equal(t, "localhost:9000", cfg.Minio.Endpoint)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DB_USER", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("WEB_ADMIN_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "WEB_ADMIN_TOKEN")
}

func TestProductionSSLMode(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("WEB_ADMIN_TOKEN", "admin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "production", cfg.Environment)
}

func TestExplicitSSLModeWins(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_SSLMODE", "verify-full")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "verify-full", cfg.Database.SSLMode)
}
