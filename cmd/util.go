// Package cmd provides CLI commands for the brandlens tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/brandlens/config"
	"github.com/otherjamesbrown/brandlens/credentials"
	"github.com/otherjamesbrown/brandlens/pkg/corroborate"
	"github.com/otherjamesbrown/brandlens/pkg/fetch"
	"github.com/otherjamesbrown/brandlens/pkg/logging"
	"github.com/otherjamesbrown/brandlens/pkg/observability"
	"github.com/otherjamesbrown/brandlens/pkg/runner"
	"github.com/otherjamesbrown/brandlens/pkg/store"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// Deps holds the dependencies shared by brandlens commands. Function fields
// are swapped out in tests.
type Deps struct {
	// Config is set by the root command before any RunE executes.
	Config *config.CLIConfig
	// ConfigFile is the --config path, empty for the default location.
	ConfigFile string
	Logger     logging.Logger

	NewEngine       func(cfg *config.CLIConfig, logger logging.Logger) (*visibility.Engine, error)
	OpenStore       func(ctx context.Context, cfg *config.CLIConfig) (store.Repository, error)
	NewTextSource   func(cfg *config.CLIConfig) runner.TextSource
	NewProvider     func(ctx context.Context, cfg *config.CLIConfig, logger logging.Logger) (corroborate.Provider, func(), error)
	NewPublisher    func(ctx context.Context, cfg *config.CLIConfig) (observability.Publisher, func(), error)
	OpenCredentials func() (*credentials.Store, error)
	ReadSecret      func(prompt string) (string, error)

	Stdin io.Reader
}

// DefaultDeps returns the production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		Config:          config.DefaultConfig(),
		Logger:          logging.NewNopLogger(),
		NewEngine:       newEngine,
		OpenStore:       openStore,
		NewTextSource:   newTextSource,
		NewProvider:     newProvider,
		NewPublisher:    newPublisher,
		OpenCredentials: credentials.NewStore,
		ReadSecret:      readSecret,
		Stdin:           os.Stdin,
	}
}

func newEngine(cfg *config.CLIConfig, logger logging.Logger) (*visibility.Engine, error) {
	engineCfg := visibility.DefaultConfig()
	if cfg.EngineConfig != "" {
		path, err := config.ExpandPath(cfg.EngineConfig)
		if err != nil {
			return nil, err
		}
		if engineCfg, err = visibility.LoadConfigFile(path); err != nil {
			return nil, fmt.Errorf("loading engine config: %w", err)
		}
	}
	return visibility.NewEngine(engineCfg, visibility.WithLogger(logger))
}

func openStore(ctx context.Context, cfg *config.CLIConfig) (store.Repository, error) {
	path, err := config.ExpandPath(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Config{Driver: cfg.Store.Driver, Path: path, URL: cfg.Store.URL})
}

func newTextSource(cfg *config.CLIConfig) runner.TextSource {
	return fetch.New(fetch.Config{
		Timeout:   cfg.Fetch.Timeout.Std(),
		UserAgent: cfg.Fetch.UserAgent,
		MaxChars:  cfg.Fetch.MaxChars,
	})
}

// newProvider builds the OpenAI-compatible provider, wrapped in the Redis
// cache when Redis is configured. The returned func releases resources.
func newProvider(ctx context.Context, cfg *config.CLIConfig, logger logging.Logger) (corroborate.Provider, func(), error) {
	cc := cfg.Corroboration
	apiKey, _, err := credentials.ResolveAPIKey(credentials.NewStore)
	if err != nil && cc.BaseURL == "" {
		return nil, nil, fmt.Errorf("no corroboration API key (run 'brandlens auth set-key' or set %s): %w", credentials.APIKeyEnv, err)
	}

	pcfg := corroborate.DefaultConfig()
	pcfg.APIKey = apiKey
	if cc.BaseURL != "" {
		pcfg.BaseURL = cc.BaseURL
	}
	if cc.Model != "" {
		pcfg.Model = cc.Model
	}
	if cc.Timeout > 0 {
		pcfg.Timeout = cc.Timeout.Std()
	}
	pcfg.MaxRetries = cc.MaxRetries
	pcfg.RequestsPerSecond = cc.RequestsPerSecond

	var provider corroborate.Provider = corroborate.NewOpenAIProvider(pcfg)
	closeFn := func() {}

	if cfg.Redis.Enabled() {
		client, err := connectToRedis(ctx, cfg)
		if err != nil {
			logger.Warn("redis unavailable, judgments will not be cached", logging.Err(err))
		} else {
			provider = corroborate.NewCachedProvider(provider, corroborate.NewRedisCache(client), cc.CacheTTL.Std(), logger)
			closeFn = func() { client.Close() }
		}
	}
	return provider, closeFn, nil
}

func newPublisher(ctx context.Context, cfg *config.CLIConfig) (observability.Publisher, func(), error) {
	if !cfg.Redis.Enabled() || !cfg.Redis.PublishEvents {
		return observability.NopPublisher{}, func() {}, nil
	}
	client, err := connectToRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return observability.NewRedisPublisher(client), func() { client.Close() }, nil
}

// connectToRedis establishes a Redis connection.
func connectToRedis(ctx context.Context, cfg *config.CLIConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}
	return client, nil
}

// readSecret prompts on stderr and reads without echo when stdin is a
// terminal, falling back to a plain line read.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil && err != io.EOF {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// writeOutput renders v as JSON or YAML, or calls text for text output.
func writeOutput(w io.Writer, format config.OutputFormat, v interface{}, text func(io.Writer) error) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return text(w)
	}
}

// truncateString shortens s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
