package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, StoragePostgres, cfg.StorageDriver)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, time.UTC, cfg.Location)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.Equal(t, "@every 30s", cfg.DLQRetrySpec())
	require.Equal(t, "@every 15m0s", cfg.SupplementReminderSpec())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("TIMEZONE", "America/Sao_Paulo")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, StorageMemory, cfg.StorageDriver)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "America/Sao_Paulo", cfg.Location.String())
	require.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	require.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
	require.Equal(t, 0, cfg.RedisDB, "unparsable values fall back to the default")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.ErrorContains(t, err, "TIMEZONE")

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err = Load()
	require.ErrorContains(t, err, "STORAGE_DRIVER")

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("OUTBOX_BATCH_SIZE", "0")
	_, err = Load()
	require.ErrorContains(t, err, "OUTBOX_BATCH_SIZE")
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FITTRACK_TEST_A=from-file\nFITTRACK_TEST_B=from-file\n"), 0o600))

	t.Setenv("FITTRACK_TEST_A", "from-env")
	t.Setenv("FITTRACK_TEST_B", "")
	require.NoError(t, os.Unsetenv("FITTRACK_TEST_B"))

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "from-env", os.Getenv("FITTRACK_TEST_A"))
	require.Equal(t, "from-file", os.Getenv("FITTRACK_TEST_B"))
	require.NoError(t, os.Unsetenv("FITTRACK_TEST_B"))
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, LoadDotEnv(""))
}
