package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "https://calculate.fairwork.gov.au/FindYourAward", cfg.Walker.StartURL)
	assert.Equal(t, 3, cfg.Walker.PassRetries)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Walker.BlockedResourceTypes)
	assert.Equal(t, "jsonl", cfg.Dataset.Sink)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RATEWALK_PORT", "9090")
	t.Setenv("RATEWALK_HEADLESS", "false")
	t.Setenv("RATEWALK_NAV_TIMEOUT", "45s")
	t.Setenv("RATEWALK_API_KEYS", " k1, ,k2 ")
	t.Setenv("RATEWALK_STEPS_PER_SECOND", "0.5")
	t.Setenv("RATEWALK_DATASET_SINK", "sqlite")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Walker.NavigationTimeout)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.InDelta(t, 0.5, cfg.Walker.StepsPerSecond, 1e-9)
	assert.Equal(t, "sqlite", cfg.Dataset.Sink)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATEWALK_PORT", "not-a-number")
	t.Setenv("RATEWALK_CACHE_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogConfig{Level: tt.level}.SlogLevel(), tt.level)
	}
}
