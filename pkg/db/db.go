// Package db provides PostgreSQL connection handling and schema migrations
// shared by the brandlens stores.
package db

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	// URL, when set, is used verbatim and the discrete fields are ignored.
	URL             string
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultConfig returns a Config for a local development database.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		Database:        "brandlens",
		User:            "brandlens",
		SSLMode:         "disable",
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		ConnectTimeout:  10 * time.Second,
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig:
//   - BRANDLENS_DATABASE_URL: full connection URL
//   - BRANDLENS_DB_HOST, BRANDLENS_DB_PORT, BRANDLENS_DB_NAME
//   - BRANDLENS_DB_USER, BRANDLENS_DB_PASSWORD, BRANDLENS_DB_SSLMODE
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("BRANDLENS_DATABASE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("BRANDLENS_DB_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("BRANDLENS_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("BRANDLENS_DB_NAME"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("BRANDLENS_DB_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("BRANDLENS_DB_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("BRANDLENS_DB_SSLMODE"); v != "" {
		cfg.SSLMode = v
	}
	return cfg
}

// ConnectionString returns URL if set, otherwise builds one from the fields.
func (c *Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
		int(c.ConnectTimeout.Seconds()),
	)
}

// Validate checks that a connection can be attempted.
func (c *Config) Validate() error {
	if c.URL != "" {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.MaxConns < c.MinConns {
		return fmt.Errorf("max connections (%d) must be >= min connections (%d)", c.MaxConns, c.MinConns)
	}
	return nil
}

// Connect creates a connection pool and verifies it with a ping.
// The caller closes the pool.
func Connect(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
