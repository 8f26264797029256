package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StorageFile, cfg.StorageBackend)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, LockFlock, cfg.LockBackend)
	assert.Equal(t, 10*time.Second, cfg.LockTimeout)
	assert.Equal(t, int64(1000), cfg.PaycheckAmount)
	assert.Equal(t, "America/New_York", cfg.PaycheckTimezone)
	assert.Equal(t, 0, cfg.PaycheckResetHour)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.False(t, cfg.IsProduction())

	loc, err := cfg.PaycheckLocation()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoad_PrefixedOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WAGERBANK_ENVIRONMENT", "production")
	t.Setenv("WAGERBANK_STORAGE_BACKEND", "postgres")
	t.Setenv("WAGERBANK_DATABASE_URL", "postgres://u:p@localhost:5432")
	t.Setenv("WAGERBANK_PAYCHECK_AMOUNT", "250")
	t.Setenv("WAGERBANK_PAYCHECK_TIMEZONE", "Europe/Berlin")
	t.Setenv("WAGERBANK_PAYCHECK_RESET_HOUR", "6")
	t.Setenv("WAGERBANK_LOCK_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, int64(250), cfg.PaycheckAmount)
	assert.Equal(t, "Europe/Berlin", cfg.PaycheckTimezone)
	assert.Equal(t, 6, cfg.PaycheckResetHour)
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WAGERBANK_DATA_DIR=/srv/ledgers\nWAGERBANK_HISTORY_LIMIT=25\n"), 0o600))
	// godotenv never overrides variables that are already set
	t.Setenv("WAGERBANK_HISTORY_LIMIT", "5")
	t.Cleanup(func() { os.Unsetenv("WAGERBANK_DATA_DIR") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/ledgers", cfg.DataDir)
	assert.Equal(t, 5, cfg.HistoryLimit)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage backend", map[string]string{"WAGERBANK_STORAGE_BACKEND": "s3"}},
		{"postgres without url", map[string]string{"WAGERBANK_STORAGE_BACKEND": "postgres"}},
		{"redis without url", map[string]string{"WAGERBANK_LOCK_BACKEND": "redis"}},
		{"bad timezone", map[string]string{"WAGERBANK_PAYCHECK_TIMEZONE": "Mars/Olympus_Mons"}},
		{"reset hour out of range", map[string]string{"WAGERBANK_PAYCHECK_RESET_HOUR": "24"}},
		{"non-positive paycheck", map[string]string{"WAGERBANK_PAYCHECK_AMOUNT": "0"}},
		{"ttl shorter than timeout", map[string]string{"WAGERBANK_LOCK_TTL": "1s"}},
		{"unparseable duration", map[string]string{"WAGERBANK_LOCK_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
