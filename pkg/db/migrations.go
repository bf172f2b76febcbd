package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migration is one SQL file and whether it has been applied.
type Migration struct {
	Version   string     `json:"version" yaml:"version"`
	Applied   bool       `json:"applied" yaml:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

// Target is a database that migrations can be applied to.
type Target interface {
	ensureTable(ctx context.Context) error
	applied(ctx context.Context) (map[string]*time.Time, error)
	apply(ctx context.Context, version, body string) error
}

// PgxTarget applies migrations through a pgx pool.
func PgxTarget(pool *pgxpool.Pool) Target { return pgxTarget{pool: pool} }

// SQLTarget applies migrations through database/sql. placeholder is the
// bind parameter style of the driver, "?" for SQLite or "$1" for Postgres.
func SQLTarget(db *sql.DB, placeholder string) Target {
	return sqlTarget{db: db, placeholder: placeholder}
}

// RunMigrations applies every pending *.sql file in dir of fsys in filename
// order. Each file runs in its own transaction. It returns the versions
// applied by this call.
func RunMigrations(ctx context.Context, t Target, fsys fs.FS, dir string) ([]string, error) {
	if err := t.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := migrationFiles(fsys, dir)
	if err != nil {
		return nil, err
	}
	done, err := t.applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	var ran []string
	for _, name := range files {
		version := strings.TrimSuffix(name, ".sql")
		if _, ok := done[version]; ok {
			continue
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return ran, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := t.apply(ctx, version, string(body)); err != nil {
			return ran, fmt.Errorf("migration %s failed: %w", version, err)
		}
		ran = append(ran, version)
	}
	return ran, nil
}

// MigrationStatus lists every migration in dir with its applied state.
func MigrationStatus(ctx context.Context, t Target, fsys fs.FS, dir string) ([]Migration, error) {
	if err := t.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	files, err := migrationFiles(fsys, dir)
	if err != nil {
		return nil, err
	}
	done, err := t.applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	out := make([]Migration, 0, len(files))
	for _, name := range files {
		version := strings.TrimSuffix(name, ".sql")
		at, ok := done[version]
		out = append(out, Migration{Version: version, Applied: ok, AppliedAt: at})
	}
	return out, nil
}

func migrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

type pgxTarget struct {
	pool *pgxpool.Pool
}

func (p pgxTarget) ensureTable(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, createMigrationsTable)
	return err
}

func (p pgxTarget) applied(ctx context.Context) (map[string]*time.Time, error) {
	rows, err := p.pool.Query(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*time.Time)
	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		out[version] = &at
	}
	return out, rows.Err()
}

func (p pgxTarget) apply(ctx context.Context, version, body string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, body); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
		return err
	})
}

type sqlTarget struct {
	db          *sql.DB
	placeholder string
}

func (s sqlTarget) ensureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createMigrationsTable)
	return err
}

// applied_at is read as text since drivers disagree on timestamp scanning.
func (s sqlTarget) applied(ctx context.Context) (map[string]*time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version, CAST(applied_at AS TEXT) FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*time.Time)
	for rows.Next() {
		var version string
		var raw sql.NullString
		if err := rows.Scan(&version, &raw); err != nil {
			return nil, err
		}
		out[version] = parseTimestamp(raw.String)
	}
	return out, rows.Err()
}

func (s sqlTarget) apply(ctx context.Context, version, body string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	q := "INSERT INTO schema_migrations (version) VALUES (" + s.placeholder + ")"
	if _, err := tx.ExecContext(ctx, q, version); err != nil {
		return err
	}
	return tx.Commit()
}

func parseTimestamp(s string) *time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
