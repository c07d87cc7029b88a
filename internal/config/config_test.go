package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "classquiz", cfg.Name)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "seconds", cfg.Session.DurationMode)
	assert.Zero(t, cfg.Session.Grace)
	assert.Equal(t, 100, cfg.AccessCode.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Leaderboard.CacheTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Contains(t, cfg.Postgres.ConnString(), "dbname=classquiz")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SESSION_DURATION_MODE", "legacy_minutes")
	t.Setenv("SESSION_GRACE", "15s")
	t.Setenv("GRACEFUL_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "legacy_minutes", cfg.Session.DurationMode)
	assert.Equal(t, 15*time.Second, cfg.Session.Grace)
	assert.Equal(t, 5*time.Second, cfg.GracefulShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	t.Run("store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := Load(context.Background())
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("grace without unit", func(t *testing.T) {
		t.Setenv("SESSION_GRACE", "30")
		_, err := Load(context.Background())
		assert.ErrorContains(t, err, "missing unit")
	})
	t.Run("negative grace", func(t *testing.T) {
		t.Setenv("SESSION_GRACE", "-1s")
		_, err := Load(context.Background())
		assert.ErrorContains(t, err, "SESSION_GRACE")
	})
	t.Run("duration mode", func(t *testing.T) {
		t.Setenv("SESSION_DURATION_MODE", "hours")
		_, err := Load(context.Background())
		assert.ErrorContains(t, err, "SESSION_DURATION_MODE")
	})
}
