package app

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.internal:5000")
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:5000", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.PanelStateTTL)
	assert.Equal(t, "₹", cfg.CurrencySymbol)
	assert.False(t, cfg.IsProduction())
}

func TestConfigValidate(t *testing.T) {
	valid := Config{APIBaseURL: "https://api.example.com", CSRFSecret: "x", RateLimitPerMinute: 10}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing csrf secret", mutate: func(c *Config) { c.CSRFSecret = "" }},
		{name: "relative api url", mutate: func(c *Config) { c.APIBaseURL = "/api" }},
		{name: "unsupported scheme", mutate: func(c *Config) { c.APIBaseURL = "ftp://api.example.com" }},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: slog.LevelWarn}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("id", "42"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"id":"42"`)
}
