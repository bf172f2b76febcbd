package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/brandlens/pkg/db"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

var _ Repository = (*PostgresStore)(nil)

// PostgresStore is a Repository backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects using cfg.
func OpenPostgres(ctx context.Context, cfg *db.Config) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool. Close closes the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool exposes the underlying pool for health checks and metrics.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate applies the embedded Postgres migrations.
func (s *PostgresStore) Migrate(ctx context.Context) ([]string, error) {
	return db.RunMigrations(ctx, db.PgxTarget(s.pool), migrationsFS, "migrations/postgres")
}

// MigrationStatus reports the embedded Postgres migrations.
func (s *PostgresStore) MigrationStatus(ctx context.Context) ([]db.Migration, error) {
	return db.MigrationStatus(ctx, db.PgxTarget(s.pool), migrationsFS, "migrations/postgres")
}

// SaveRun inserts the run and its results in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	summary, err := encodeSummary(run.Summary)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO runs (id, target, created_at, total_units, mentioned_count,
				mention_rate, average_score, recommendation, summary)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)`,
			run.ID, run.Target, run.CreatedAt,
			run.Summary.TotalUnits, run.Summary.MentionedCount,
			run.Summary.MentionRate, run.Summary.AverageScore,
			string(run.Summary.Recommendation), summary,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for i, r := range run.Results {
			batch.Queue(`
				INSERT INTO results (run_id, position, source_label, unit_timestamp,
					mentioned, score, rank, sentiment, confidence, signals, error, error_code)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12)`,
				run.ID, i, r.SourceLabel, r.Timestamp,
				r.Mentioned, r.VisibilityScore, string(r.Rank), string(r.Sentiment),
				string(r.Confidence), r.SignalsJSON(), r.Error, r.ErrorCode,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
		return nil
	})
}

// GetRun loads a run with its results in input order.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run     Run
		summary []byte
	)
	err := s.pool.QueryRow(ctx,
		"SELECT id, target, created_at, summary::text FROM runs WHERE id = $1", id,
	).Scan(&run.ID, &run.Target, &run.CreatedAt, &summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if run.Summary, err = decodeSummary(summary); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT source_label, unit_timestamp, mentioned, score, rank, sentiment,
			confidence, signals::text, error, error_code
		FROM results WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                           visibility.MentionResult
			rank, sentiment, confidence string
			signals                     string
		)
		if err := rows.Scan(&r.SourceLabel, &r.Timestamp, &r.Mentioned, &r.VisibilityScore,
			&rank, &sentiment, &confidence, &signals, &r.Error, &r.ErrorCode); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Rank = visibility.RankBucket(rank)
		r.Sentiment = visibility.Sentiment(sentiment)
		r.Confidence = visibility.Confidence(confidence)
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
func (s *PostgresStore) ListRuns(ctx context.Context, target string, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, target, created_at, total_units, mentioned_count,
			mention_rate, average_score, recommendation
		FROM runs
		WHERE ($1 = '' OR target = $1)
		ORDER BY created_at DESC
		LIMIT $2`, target, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info RunInfo
			rec  string
		)
		if err := rows.Scan(&info.ID, &info.Target, &info.CreatedAt, &info.TotalUnits,
			&info.MentionedCount, &info.MentionRate, &info.AverageScore, &rec); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.Recommendation = visibility.Recommendation(rec)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteRun removes a run; results cascade.
func (s *PostgresStore) DeleteRun(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
