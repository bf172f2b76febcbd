package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/otherjamesbrown/brandlens/pkg/db"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// created_at is stored fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ Repository = (*SQLiteStore)(nil)

// SQLiteStore is a Repository backed by a local SQLite file.
// All methods are safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	connStr := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every new connection would see its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

// Migrate applies the embedded SQLite migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return db.RunMigrations(ctx, db.SQLTarget(s.db, "?"), migrationsFS, "migrations/sqlite")
}

// MigrationStatus reports the embedded SQLite migrations.
func (s *SQLiteStore) MigrationStatus(ctx context.Context) ([]db.Migration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return db.MigrationStatus(ctx, db.SQLTarget(s.db, "?"), migrationsFS, "migrations/sqlite")
}

// SaveRun inserts the run and its results in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	summary, err := encodeSummary(run.Summary)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, target, created_at, total_units, mentioned_count,
			mention_rate, average_score, recommendation, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.CreatedAt.UTC().Format(sqliteTimeLayout),
		run.Summary.TotalUnits, run.Summary.MentionedCount,
		run.Summary.MentionRate, run.Summary.AverageScore,
		string(run.Summary.Recommendation), summary,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, position, source_label, unit_timestamp,
			mentioned, score, rank, sentiment, confidence, signals, error, error_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range run.Results {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.SourceLabel, r.Timestamp,
			r.Mentioned, r.VisibilityScore, string(r.Rank), string(r.Sentiment),
			string(r.Confidence), r.SignalsJSON(), r.Error, r.ErrorCode,
		)
		if err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun loads a run with its results in input order.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		run       Run
		createdAt string
		summary   string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, target, created_at, summary FROM runs WHERE id = ?", id,
	).Scan(&run.ID, &run.Target, &createdAt, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if run.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if run.Summary, err = decodeSummary([]byte(summary)); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_label, unit_timestamp, mentioned, score, rank, sentiment,
			confidence, signals, error, error_code
		FROM results WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r       visibility.MentionResult
			signals string
		)
		if err := rows.Scan(&r.SourceLabel, &r.Timestamp, &r.Mentioned, &r.VisibilityScore,
			&r.Rank, &r.Sentiment, &r.Confidence, &signals, &r.Error, &r.ErrorCode); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.Signals, err = visibility.ParseSignalsJSON(signals); err != nil {
			return nil, fmt.Errorf("decode signals: %w", err)
		}
		run.Results = append(run.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means 20.
func (s *SQLiteStore) ListRuns(ctx context.Context, target string, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, created_at, total_units, mentioned_count,
			mention_rate, average_score, recommendation
		FROM runs
		WHERE (? = '' OR target = ?)
		ORDER BY created_at DESC
		LIMIT ?`, target, target, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info      RunInfo
			createdAt string
		)
		if err := rows.Scan(&info.ID, &info.Target, &createdAt, &info.TotalUnits,
			&info.MentionedCount, &info.MentionRate, &info.AverageScore, &info.Recommendation); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if info.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its results.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM results WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
