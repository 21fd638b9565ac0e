package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// managedEnv lists every variable the tests touch. Setting them to "" through
// t.Setenv restores the original value after the test and, since viper ignores
// empty env values, behaves as unset.
var managedEnv = []string{
	"SHOP_APP_NAME",
	"SHOP_APP_ENV",
	"SHOP_APP_PORT",
	"SHOP_DATABASE_DRIVER",
	"SHOP_DATABASE_HOST",
	"SHOP_DATABASE_PORT",
	"SHOP_DATABASE_USER",
	"SHOP_DATABASE_PASSWORD",
	"SHOP_DATABASE_DBNAME",
	"SHOP_DATABASE_SSLMODE",
	"SHOP_DATABASE_MAX_OPEN_CONNS",
	"SHOP_DATABASE_MAX_IDLE_CONNS",
	"SHOP_REDIS_ENABLED",
	"SHOP_LEDGER_OVERPAYMENT_POLICY",
	"SHOP_LEDGER_IDEMPOTENCY_TTL",
	"SHOP_LEDGER_IDEMPOTENCY_ENABLED",
	"SHOP_LEDGER_DRIFT_CHECK_INTERVAL",
	"SHOP_NOTIFICATION_PROVIDER",
	"SHOP_NOTIFICATION_ENABLED",
	"SHOP_TELEMETRY_DB_LOG_FULL_SQL",
	"SHOP_TELEMETRY_SAMPLING_RATIO",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shopledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shopledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, "advance", cfg.Ledger.OverpaymentPolicy)
		assert.True(t, cfg.Ledger.IdempotencyEnabled)
		assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.True(t, cfg.Ledger.DriftCheckEnabled)
		assert.Equal(t, time.Hour, cfg.Ledger.DriftCheckInterval)

		assert.True(t, cfg.Notification.Enabled)
		assert.Equal(t, "log", cfg.Notification.Provider)
		assert.Equal(t, "shopledger:payments", cfg.Notification.Channel)

		assert.True(t, cfg.HTTP.RateLimitEnabled)
		assert.Equal(t, 20, cfg.HTTP.RateLimitBurst)
	})

	t.Run("loads values from environment variables with SHOP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_APP_NAME", "test-app")
		t.Setenv("SHOP_APP_PORT", "9000")
		t.Setenv("SHOP_DATABASE_HOST", "testdb.local")
		t.Setenv("SHOP_DATABASE_PORT", "5433")
		t.Setenv("SHOP_DATABASE_PASSWORD", "testpass")
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("SHOP_LEDGER_OVERPAYMENT_POLICY", "reject")
		t.Setenv("SHOP_LEDGER_IDEMPOTENCY_TTL", "2h")
		t.Setenv("SHOP_LEDGER_IDEMPOTENCY_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "reject", cfg.Ledger.OverpaymentPolicy)
		assert.Equal(t, 2*time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.False(t, cfg.Ledger.IdempotencyEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown overpayment policy", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_LEDGER_OVERPAYMENT_POLICY", "refund")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.overpayment_policy")
	})

	t.Run("rejects drift interval under a minute", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_LEDGER_DRIFT_CHECK_INTERVAL", "10s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "drift_check_interval")
	})

	t.Run("redis notifier requires redis", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_NOTIFICATION_PROVIDER", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.enabled")

		t.Setenv("SHOP_REDIS_ENABLED", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "redis", cfg.Notification.Provider)
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SHOP_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", SQLitePath: "file::memory:?cache=shared"}
		assert.Equal(t, "file::memory:?cache=shared", cfg.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
