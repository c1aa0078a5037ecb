package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Backfill.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.Backfill.IdleWait)
	assert.Equal(t, 0, cfg.Backfill.RunAtHour)
	assert.True(t, cfg.Backfill.SeedDefaults)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Location.String())
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.Contains(t, cfg.Database.DSN(), "TimeZone=UTC")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKFILL_BATCH_SIZE", "25")
	t.Setenv("BACKFILL_IDLE_WAIT", "5s")
	t.Setenv("BACKFILL_RUN_AT", "03:30")
	t.Setenv("CORS_ORIGINS", "https://ddjj.example.gob.ar, http://localhost:5173")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Backfill.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Backfill.IdleWait)
	assert.Equal(t, 3, cfg.Backfill.RunAtHour)
	assert.Equal(t, 30, cfg.Backfill.RunAtMinute)
	assert.Equal(t, []string{"https://ddjj.example.gob.ar", "http://localhost:5173"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("batch size", func(t *testing.T) {
		t.Setenv("BACKFILL_BATCH_SIZE", "0")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("run at", func(t *testing.T) {
		t.Setenv("BACKFILL_RUN_AT", "midnight")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("missing secret in release", func(t *testing.T) {
		t.Setenv("GIN_MODE", "release")
		t.Setenv("JWT_SECRET", "")
		_, err := Load("")
		assert.Error(t, err)
	})
}
