package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://data.sfgov.org/resource", cfg.OpenData.BaseURL)
	assert.Equal(t, 30, cfg.OpenData.TimeoutSecs)
	assert.Equal(t, 3, cfg.OpenData.MaxRetries)
	assert.Equal(t, 500, cfg.Safety.DefaultRadiusMeters)
	assert.Equal(t, 30, cfg.Safety.DefaultTimeWindowDays)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Guidance.APIKey)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SAFEPATH_OPENDATA_APP_TOKEN", "token-123")
	t.Setenv("SAFEPATH_SAFETY_DEFAULT_RADIUS_METERS", "750")
	t.Setenv("SAFEPATH_STORE_DRIVER", "postgres")
	t.Setenv("SAFEPATH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.OpenData.AppToken)
	assert.Equal(t, 750, cfg.Safety.DefaultRadiusMeters)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
