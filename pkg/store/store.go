// Package store persists evaluation runs so results can be listed and
// re-read after the process exits.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/brandlens/pkg/db"
	blerrors "github.com/otherjamesbrown/brandlens/pkg/errors"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = fmt.Errorf("run %w", blerrors.ErrNotFound)

// Run is one persisted batch: its results in input order plus the summary.
type Run struct {
	ID        string                     `json:"id" yaml:"id"`
	Target    string                     `json:"target" yaml:"target"`
	CreatedAt time.Time                  `json:"created_at" yaml:"created_at"`
	Results   []visibility.MentionResult `json:"results" yaml:"results"`
	Summary   visibility.RunSummary      `json:"summary" yaml:"summary"`
}

// NewRun stamps results and summary with a fresh ID and the current time.
func NewRun(target string, results []visibility.MentionResult, summary visibility.RunSummary) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Target:    target,
		CreatedAt: time.Now().UTC(),
		Results:   results,
		Summary:   summary,
	}
}

// RunInfo is the listing view of a run, without per-unit results.
type RunInfo struct {
	ID             string                    `json:"id" yaml:"id"`
	Target         string                    `json:"target" yaml:"target"`
	CreatedAt      time.Time                 `json:"created_at" yaml:"created_at"`
	TotalUnits     int                       `json:"total_units" yaml:"total_units"`
	MentionedCount int                       `json:"mentioned_count" yaml:"mentioned_count"`
	MentionRate    float64                   `json:"mention_rate" yaml:"mention_rate"`
	AverageScore   float64                   `json:"average_score" yaml:"average_score"`
	Recommendation visibility.Recommendation `json:"recommendation" yaml:"recommendation"`
}

// Repository stores and retrieves runs.
type Repository interface {
	// Migrate brings the schema up to date.
	Migrate(ctx context.Context) ([]string, error)
	// MigrationStatus lists schema migrations and whether each is applied.
	MigrationStatus(ctx context.Context) ([]db.Migration, error)
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns the newest runs first. An empty target lists all.
	ListRuns(ctx context.Context, target string, limit int) ([]RunInfo, error)
	DeleteRun(ctx context.Context, id string) error
	Close() error
}

// Driver names accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the backend.
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	// Path is the SQLite file, or ":memory:".
	Path string `yaml:"path" json:"path"`
	// URL is the Postgres connection URL. Empty falls back to BRANDLENS_DB_* env.
	URL string `yaml:"url" json:"url"`
}

// DefaultPath is the SQLite file under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "brandlens.db"
	}
	return filepath.Join(home, ".brandlens", "brandlens.db")
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	var (
		repo Repository
		err  error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		repo, err = OpenSQLite(ctx, path)
	case DriverPostgres, "pgx":
		pgCfg := db.ConfigFromEnv()
		if cfg.URL != "" {
			pgCfg.URL = cfg.URL
		}
		repo, err = OpenPostgres(ctx, pgCfg)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", blerrors.ErrInvalidInput, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if _, err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}

func encodeSummary(s visibility.RunSummary) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	return string(b), nil
}

func decodeSummary(raw []byte) (visibility.RunSummary, error) {
	var s visibility.RunSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

func validateRun(run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", blerrors.ErrInvalidInput)
	}
	if run.Target == "" {
		return fmt.Errorf("%w: run target is required", blerrors.ErrInvalidInput)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
