package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PIM_APP_NAME":                os.Getenv("PIM_APP_NAME"),
		"PIM_APP_ENV":                 os.Getenv("PIM_APP_ENV"),
		"PIM_APP_PORT":                os.Getenv("PIM_APP_PORT"),
		"PIM_DATABASE_HOST":           os.Getenv("PIM_DATABASE_HOST"),
		"PIM_DATABASE_PORT":           os.Getenv("PIM_DATABASE_PORT"),
		"PIM_DATABASE_USER":           os.Getenv("PIM_DATABASE_USER"),
		"PIM_DATABASE_PASSWORD":       os.Getenv("PIM_DATABASE_PASSWORD"),
		"PIM_DATABASE_DBNAME":         os.Getenv("PIM_DATABASE_DBNAME"),
		"PIM_DATABASE_SSLMODE":        os.Getenv("PIM_DATABASE_SSLMODE"),
		"PIM_DATABASE_MAX_OPEN_CONNS": os.Getenv("PIM_DATABASE_MAX_OPEN_CONNS"),
		"PIM_DATABASE_MAX_IDLE_CONNS": os.Getenv("PIM_DATABASE_MAX_IDLE_CONNS"),
		"PIM_FEED_BASE_URL":           os.Getenv("PIM_FEED_BASE_URL"),
		"PIM_FEED_MAX_ATTEMPTS":       os.Getenv("PIM_FEED_MAX_ATTEMPTS"),
		"PIM_FEED_RETRY_BACKOFF":      os.Getenv("PIM_FEED_RETRY_BACKOFF"),
		"PIM_IMPORT_ENABLED":          os.Getenv("PIM_IMPORT_ENABLED"),
		"PIM_IMPORT_INTERVAL":         os.Getenv("PIM_IMPORT_INTERVAL"),
		"PIM_IMPORT_BATCH_SIZE":       os.Getenv("PIM_IMPORT_BATCH_SIZE"),
		"APP_ENV":                     os.Getenv("APP_ENV"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pim-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "pim", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "https://dummyjson.com", cfg.Feed.BaseURL)
		assert.Equal(t, 30, cfg.Feed.TimeoutSeconds)
		assert.Equal(t, 2, cfg.Feed.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.Feed.RetryBackoff)
		assert.Equal(t, 24*time.Hour, cfg.Import.Interval)
		assert.Equal(t, 30, cfg.Import.BatchSize)
		assert.Equal(t, 1, cfg.Import.MaxConcurrentJobs)
		assert.Equal(t, time.Hour, cfg.Import.LockTTL)
		assert.False(t, cfg.Import.ArchiveEnabled)
		assert.False(t, cfg.Auth.Enabled)
	})

	t.Run("loads values from environment variables with PIM prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_APP_NAME", "test-app")
		os.Setenv("PIM_APP_ENV", "testing")
		os.Setenv("PIM_APP_PORT", "9000")
		os.Setenv("PIM_DATABASE_HOST", "testdb.local")
		os.Setenv("PIM_DATABASE_PORT", "5433")
		os.Setenv("PIM_DATABASE_USER", "testuser")
		os.Setenv("PIM_DATABASE_PASSWORD", "testpass")
		os.Setenv("PIM_DATABASE_DBNAME", "testdb")
		os.Setenv("PIM_DATABASE_SSLMODE", "require")
		os.Setenv("PIM_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("PIM_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("PIM_FEED_BASE_URL", "http://feed.internal:9100")
		os.Setenv("PIM_FEED_MAX_ATTEMPTS", "4")
		os.Setenv("PIM_FEED_RETRY_BACKOFF", "2s")
		os.Setenv("PIM_IMPORT_ENABLED", "true")
		os.Setenv("PIM_IMPORT_INTERVAL", "6h")
		os.Setenv("PIM_IMPORT_BATCH_SIZE", "50")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "http://feed.internal:9100", cfg.Feed.BaseURL)
		assert.Equal(t, 4, cfg.Feed.MaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.Feed.RetryBackoff)
		assert.True(t, cfg.Import.Enabled)
		assert.Equal(t, 6*time.Hour, cfg.Import.Interval)
		assert.Equal(t, 50, cfg.Import.BatchSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PIM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("validates MaxAttempts must be at least one", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_FEED_MAX_ATTEMPTS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feed.max_attempts must be at least 1")
	})

	t.Run("validates BatchSize must be at least one", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_IMPORT_BATCH_SIZE", "-5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import.batch_size must be at least 1")
	})
}

func TestLoad_ArchiveValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PIM_IMPORT_ARCHIVE_ENABLED": os.Getenv("PIM_IMPORT_ARCHIVE_ENABLED"),
		"PIM_STORAGE_BUCKET":         os.Getenv("PIM_STORAGE_BUCKET"),
		"PIM_STORAGE_ACCESS_KEY":     os.Getenv("PIM_STORAGE_ACCESS_KEY"),
		"PIM_STORAGE_SECRET_KEY":     os.Getenv("PIM_STORAGE_SECRET_KEY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires bucket when archiving enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_IMPORT_ARCHIVE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket is required")
	})

	t.Run("requires credentials when archiving enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_IMPORT_ARCHIVE_ENABLED", "true")
		os.Setenv("PIM_STORAGE_BUCKET", "pim-snapshots")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key and storage.secret_key are required")
	})

	t.Run("passes with full storage config", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_IMPORT_ARCHIVE_ENABLED", "true")
		os.Setenv("PIM_STORAGE_BUCKET", "pim-snapshots")
		os.Setenv("PIM_STORAGE_ACCESS_KEY", "minioadmin")
		os.Setenv("PIM_STORAGE_SECRET_KEY", "minioadmin")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Import.ArchiveEnabled)
		assert.Equal(t, "pim-snapshots", cfg.Storage.Bucket)
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
	})

	t.Run("storage config is optional when archiving disabled", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Import.ArchiveEnabled)
		assert.Empty(t, cfg.Storage.Bucket)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PIM_APP_ENV":                   os.Getenv("PIM_APP_ENV"),
		"PIM_AUTH_ENABLED":              os.Getenv("PIM_AUTH_ENABLED"),
		"PIM_AUTH_JWT_SECRET":           os.Getenv("PIM_AUTH_JWT_SECRET"),
		"PIM_DATABASE_PASSWORD":         os.Getenv("PIM_DATABASE_PASSWORD"),
		"PIM_DATABASE_SSLMODE":          os.Getenv("PIM_DATABASE_SSLMODE"),
		"PIM_HTTP_CORS_ALLOW_ORIGINS":   os.Getenv("PIM_HTTP_CORS_ALLOW_ORIGINS"),
		"PIM_TELEMETRY_DB_LOG_FULL_SQL": os.Getenv("PIM_TELEMETRY_DB_LOG_FULL_SQL"),
		"APP_ENV":                       os.Getenv("APP_ENV"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	// Helper to set valid production base config
	setValidProductionBase := func() {
		os.Setenv("PIM_APP_ENV", "production")
		os.Setenv("PIM_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PIM_DATABASE_SSLMODE", "require")
	}

	t.Run("requires auth.jwt_secret when auth enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PIM_AUTH_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt_secret is required in production")
	})

	t.Run("requires auth.jwt_secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PIM_AUTH_ENABLED", "true")
		os.Setenv("PIM_AUTH_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt_secret must be at least 32 characters")
	})

	t.Run("allows missing secret when auth disabled", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
		assert.False(t, cfg.Auth.Enabled)
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_APP_ENV", "production")
		os.Setenv("PIM_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PIM_APP_ENV", "production")
		os.Setenv("PIM_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PIM_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects wildcard CORS origin in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PIM_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins cannot be '*' in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PIM_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql must be false in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoad_TelemetryValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PIM_TELEMETRY_SAMPLING_RATIO": os.Getenv("PIM_TELEMETRY_SAMPLING_RATIO"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		os.Setenv("PIM_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio must be between 0.0 and 1.0")
	})

	t.Run("zero sampling ratio uses default", func(t *testing.T) {
		os.Unsetenv("PIM_TELEMETRY_SAMPLING_RATIO")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
