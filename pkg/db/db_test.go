package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "brandlens", cfg.Database)
	assert.Equal(t, 5432, cfg.Port)
	require.NoError(t, cfg.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BRANDLENS_DB_HOST", "db.internal")
	t.Setenv("BRANDLENS_DB_PORT", "6543")
	t.Setenv("BRANDLENS_DB_NAME", "visibility")
	t.Setenv("BRANDLENS_DB_PASSWORD", "p@ss word")

	cfg := ConfigFromEnv()
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "visibility", cfg.Database)
	assert.Contains(t, cfg.ConnectionString(), "brandlens:p%40ss+word@db.internal:6543/visibility")
}

func TestConfigFromEnvURL(t *testing.T) {
	t.Setenv("BRANDLENS_DATABASE_URL", "postgres://u:p@h/d")
	cfg := ConfigFromEnv()
	assert.Equal(t, "postgres://u:p@h/d", cfg.ConnectionString())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port"},
		{"missing database", func(c *Config) { c.Database = "" }, "name"},
		{"missing user", func(c *Config) { c.User = "" }, "user"},
		{"conns", func(c *Config) { c.MaxConns = 1; c.MinConns = 2 }, "max connections"},
		{"url skips checks", func(c *Config) { c.URL = "postgres://x"; c.Host = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts := parseTimestamp("2026-03-01 10:20:30")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 20, 30, 0, time.UTC), *ts)
	assert.Nil(t, parseTimestamp("not a time"))
}
