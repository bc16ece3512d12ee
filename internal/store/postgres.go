package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/linkedin-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id            TEXT PRIMARY KEY,
	mode          TEXT NOT NULL,
	status        TEXT NOT NULL,
	target_count  INTEGER NOT NULL,
	success_count INTEGER NOT NULL,
	failure_count INTEGER NOT NULL,
	output_path   TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_results (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES batch_runs(id),
	company     TEXT NOT NULL,
	url         TEXT NOT NULL,
	source      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	profile     JSONB,
	error       TEXT,
	captured_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batch_runs_status ON batch_runs(status);
CREATE INDEX IF NOT EXISTS idx_batch_results_run_id ON batch_results(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *model.BatchRun) error {
	rec := recordFromRun(run)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO batch_runs (id, mode, status, target_count, success_count, failure_count, output_path, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, string(rec.Mode), string(rec.Status), rec.TargetCount, rec.SuccessCount, rec.FailureCount,
		rec.OutputPath, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	for _, res := range allResults(run) {
		var profileJSON any
		if res.Profile != nil {
			data, err := json.Marshal(res.Profile)
			if err != nil {
				return eris.Wrap(err, "postgres: marshal profile")
			}
			profileJSON = string(data)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO batch_results (id, run_id, company, url, source, outcome, profile, error, captured_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New().String(), rec.ID, res.Target.Name, res.Target.URL, string(res.Target.Source),
			string(res.Outcome), profileJSON, res.Error, res.CapturedAt,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert result")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit run")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, mode, status, target_count, success_count, failure_count, output_path, started_at, finished_at
		 FROM batch_runs WHERE id = $1`, runID)

	rec, err := scanRunRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return rec, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `SELECT id, mode, status, target_count, success_count, failure_count, output_path, started_at, finished_at
		FROM batch_runs`
	var args []any

	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		if filter.Status != "" {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $1`
		}
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string) ([]model.ScrapeResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company, url, source, outcome, profile, error, captured_at
		 FROM batch_results WHERE run_id = $1 ORDER BY captured_at ASC`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list results %s", runID)
	}
	defer rows.Close()

	var results []model.ScrapeResult
	for rows.Next() {
		var (
			res         model.ScrapeResult
			source      string
			outcome     string
			profileJSON *string
			errDetail   *string
		)
		if err := rows.Scan(&res.Target.Name, &res.Target.URL, &source, &outcome, &profileJSON, &errDetail, &res.CapturedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		res.Target.Source = model.ResolutionSource(source)
		res.Outcome = model.Outcome(outcome)
		if errDetail != nil {
			res.Error = *errDetail
		}
		if profileJSON != nil && *profileJSON != "" {
			var profile model.CompanyProfile
			if err := json.Unmarshal([]byte(*profileJSON), &profile); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal profile")
			}
			res.Profile = &profile
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "postgres: iterate results")
}
