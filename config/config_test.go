package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookstock")
	t.Setenv("JWT_SECRET_KEY", "segredo")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 2*time.Second, cfg.StockLockTimeout)
	assert.Equal(t, 20, cfg.LowStockTarget)
	assert.Equal(t, "log", cfg.NotifyBackend)
	assert.Empty(t, cfg.RedisAddr)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("STOCK_LOCK_TIMEOUT_MS", "250")
	t.Setenv("NOTIFY_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RATE_LIMIT_PERIOD_MIN", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.StockLockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.RateLimitPeriod)
}

func TestLoadConfig_MissingRequiredKeys(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_TIMEOUT_SEC", "-1")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("NOTIFY_BACKEND", "redis")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_TIMEOUT_SEC")
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}
