package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "password", cfg.Auth.DemoPassword)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "aavaaz-user", cfg.Session.Key)
	assert.True(t, cfg.Data.SeedDemoData)
	assert.Equal(t, 6, cfg.Report.TrendPeriods)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GRIEVANCE_SERVER_PORT", "9090")
	t.Setenv("GRIEVANCE_SERVER_ENVIRONMENT", "production")
	t.Setenv("GRIEVANCE_AUTH_TOKEN_TTL", "30m")
	t.Setenv("GRIEVANCE_REPORT_TREND_PERIODS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Report.TrendPeriods)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("GRIEVANCE_SERVER_PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"negative ttl", func(c *Config) { c.Auth.TokenTTL = -time.Second }},
		{"empty demo password", func(c *Config) { c.Auth.DemoPassword = "" }},
		{"zero burst", func(c *Config) { c.Auth.LoginBurst = 0 }},
		{"empty session key", func(c *Config) { c.Session.Key = "" }},
		{"zero trend periods", func(c *Config) { c.Report.TrendPeriods = 0 }},
	}

	require.NoError(t, NewForTesting().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewForTesting()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
