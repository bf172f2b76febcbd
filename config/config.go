// Package config provides CLI configuration management for the brandlens
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultTimeout      = 10 * time.Minute
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".brandlens"
	DefaultConfigFile   = "config.yaml"
	DefaultConcurrency  = 4
	DefaultUnitTimeout  = 60 * time.Second
	DefaultCacheTTL     = 7 * 24 * time.Hour
)

// Duration is a time.Duration that reads and writes as "90s", "10m".
type Duration time.Duration

// UnmarshalYAML accepts a duration string or an integer number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if n, err := strconv.Atoi(node.Value); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration in Go notation.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// MarshalText makes JSON output readable too.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// StoreConfig selects where runs are persisted.
type StoreConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the SQLite file. Supports ~.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// URL is the Postgres connection URL.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Disabled skips persistence entirely.
	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// RedisConfig enables the judgment cache and run events.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	// PublishEvents publishes run events on pub/sub channels.
	PublishEvents bool `yaml:"publish_events,omitempty" json:"publish_events,omitempty"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// CorroborationConfig configures the external model check.
type CorroborationConfig struct {
	Enabled           bool     `yaml:"enabled" json:"enabled"`
	BaseURL           string   `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Model             string   `yaml:"model,omitempty" json:"model,omitempty"`
	Timeout           Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxRetries        int      `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RequestsPerSecond float64  `yaml:"requests_per_second,omitempty" json:"requests_per_second,omitempty"`
	CacheTTL          Duration `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`
	// MergePolicy is local, prefer-external-positive, or max.
	MergePolicy string `yaml:"merge_policy,omitempty" json:"merge_policy,omitempty"`
	// Strict makes provider failures fail the unit.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`
}

// FetchConfig configures URL fetching.
type FetchConfig struct {
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	UserAgent string   `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	MaxChars  int      `yaml:"max_chars,omitempty" json:"max_chars,omitempty"`
}

// CLIConfig holds the configuration for the brandlens CLI.
type CLIConfig struct {
	// Timeout bounds a whole command.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format" json:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty"`

	// LogJSON switches log output from console to JSON lines.
	LogJSON bool `yaml:"log_json,omitempty" json:"log_json,omitempty"`

	// EngineConfig is a YAML file of scoring settings merged over defaults.
	EngineConfig string `yaml:"engine_config,omitempty" json:"engine_config,omitempty"`

	// Concurrency bounds units evaluated in parallel by batch.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// UnitTimeout bounds fetch and corroboration per unit.
	UnitTimeout Duration `yaml:"unit_timeout" json:"unit_timeout"`

	Store         StoreConfig         `yaml:"store" json:"store"`
	Redis         RedisConfig         `yaml:"redis,omitempty" json:"redis,omitempty"`
	Corroboration CorroborationConfig `yaml:"corroboration" json:"corroboration"`
	Fetch         FetchConfig         `yaml:"fetch,omitempty" json:"fetch,omitempty"`

	// MetricsTextfile, when set, receives Prometheus metrics after each run.
	MetricsTextfile string `yaml:"metrics_textfile,omitempty" json:"metrics_textfile,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Timeout:      Duration(DefaultTimeout),
		OutputFormat: DefaultOutputFormat,
		Concurrency:  DefaultConcurrency,
		UnitTimeout:  Duration(DefaultUnitTimeout),
		Store:        StoreConfig{Driver: "sqlite"},
		Corroboration: CorroborationConfig{
			Model:             "gpt-4o-mini",
			Timeout:           Duration(30 * time.Second),
			MaxRetries:        2,
			RequestsPerSecond: 1,
			CacheTTL:          Duration(DefaultCacheTTL),
			MergePolicy:       "prefer-external-positive",
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $BRANDLENS_CONFIG_DIR if set, otherwise ~/.brandlens
func ConfigDir() (string, error) {
	if dir := os.Getenv("BRANDLENS_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration. Later sources override earlier:
// 1. Default values
// 2. Config file (path, or ~/.brandlens/config.yaml when path is empty)
// 3. .env in the working directory, then BRANDLENS_* environment variables
func LoadConfig(path string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("getting config path: %w", err)
		}
		path = p
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current values.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("BRANDLENS_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = Duration(timeout)
		}
	}
	if v := os.Getenv("BRANDLENS_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(strings.ToLower(v))
	}
	if v := os.Getenv("BRANDLENS_DEBUG"); v != "" {
		cfg.Debug = parseBool(v, cfg.Debug)
	}
	if v := os.Getenv("BRANDLENS_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v, cfg.LogJSON)
	}
	if v := os.Getenv("BRANDLENS_ENGINE_CONFIG"); v != "" {
		cfg.EngineConfig = v
	}
	if v := os.Getenv("BRANDLENS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("BRANDLENS_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("BRANDLENS_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("BRANDLENS_DATABASE_URL"); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv("BRANDLENS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BRANDLENS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BRANDLENS_CORROBORATION_ENABLED"); v != "" {
		cfg.Corroboration.Enabled = parseBool(v, cfg.Corroboration.Enabled)
	}
	if v := os.Getenv("BRANDLENS_CORROBORATION_BASE_URL"); v != "" {
		cfg.Corroboration.BaseURL = v
	}
	if v := os.Getenv("BRANDLENS_CORROBORATION_MODEL"); v != "" {
		cfg.Corroboration.Model = v
	}
	if v := os.Getenv("BRANDLENS_MERGE_POLICY"); v != "" {
		cfg.Corroboration.MergePolicy = v
	}
	if v := os.Getenv("BRANDLENS_METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid store.driver: %q (must be sqlite or postgres)", c.Store.Driver)
	}
	switch c.Corroboration.MergePolicy {
	case "", "local", "prefer-external-positive", "max":
	default:
		return fmt.Errorf("invalid corroboration.merge_policy: %q", c.Corroboration.MergePolicy)
	}
	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig writes cfg to path, or to the default config path when path is
// empty.
func SaveConfig(cfg *CLIConfig, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
