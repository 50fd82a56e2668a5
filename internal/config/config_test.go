package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("ANAF_DOWNLOAD_TIMEOUT_SEC", "240")
	os.Setenv("SYNC_DEFAULT_WINDOW_DAYS", "30")
	defer func() {
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
		os.Unsetenv("ANAF_DOWNLOAD_TIMEOUT_SEC")
		os.Unsetenv("SYNC_DEFAULT_WINDOW_DAYS")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 240, cfg.Anaf.DownloadTimeoutSec)
	assert.Equal(t, 30, cfg.Sync.DefaultWindowDays)
}

func TestDefaults(t *testing.T) {
	os.Unsetenv("ANAF_API_BASE_URL")
	os.Unsetenv("SYNC_MAX_WINDOW_DAYS")

	cfg := Load()

	assert.Equal(t, "https://webservicesp.anaf.ro", cfg.Anaf.BaseURL)
	assert.Equal(t, 60, cfg.Sync.MaxWindowDays)
	assert.Equal(t, 30, cfg.Anaf.ListTimeoutSec)
	assert.Equal(t, 120, cfg.Anaf.DownloadTimeoutSec)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "42")
	assert.Equal(t, 42, getEnvInt(key, 7))

	os.Setenv(key, "not-a-number")
	assert.Equal(t, 7, getEnvInt(key, 7))

	os.Unsetenv(key)
	assert.Equal(t, 7, getEnvInt(key, 7))
}
