package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/linkedin-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id            TEXT PRIMARY KEY,
	mode          TEXT NOT NULL,
	status        TEXT NOT NULL,
	target_count  INTEGER NOT NULL,
	success_count INTEGER NOT NULL,
	failure_count INTEGER NOT NULL,
	output_path   TEXT,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_results (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES batch_runs(id),
	company     TEXT NOT NULL,
	url         TEXT NOT NULL,
	source      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	profile     TEXT,
	error       TEXT,
	captured_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batch_runs_status ON batch_runs(status);
CREATE INDEX IF NOT EXISTS idx_batch_results_run_id ON batch_results(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.BatchRun) error {
	rec := recordFromRun(run)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_runs (id, mode, status, target_count, success_count, failure_count, output_path, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Mode), string(rec.Status), rec.TargetCount, rec.SuccessCount, rec.FailureCount,
		rec.OutputPath, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	for _, res := range allResults(run) {
		profileJSON, err := marshalProfile(res)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO batch_results (id, run_id, company, url, source, outcome, profile, error, captured_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), rec.ID, res.Target.Name, res.Target.URL, string(res.Target.Source),
			string(res.Outcome), profileJSON, res.Error, res.CapturedAt,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert result")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, status, target_count, success_count, failure_count, output_path, started_at, finished_at
		 FROM batch_runs WHERE id = ?`, runID)

	rec, err := scanRunRecord(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `SELECT id, mode, status, target_count, success_count, failure_count, output_path, started_at, finished_at
		FROM batch_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) ListResults(ctx context.Context, runID string) ([]model.ScrapeResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company, url, source, outcome, profile, error, captured_at
		 FROM batch_results WHERE run_id = ? ORDER BY captured_at ASC`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list results %s", runID)
	}
	defer rows.Close()

	var results []model.ScrapeResult
	for rows.Next() {
		var (
			res         model.ScrapeResult
			source      string
			outcome     string
			profileJSON sql.NullString
			errDetail   sql.NullString
			capturedAt  time.Time
		)
		if err := rows.Scan(&res.Target.Name, &res.Target.URL, &source, &outcome, &profileJSON, &errDetail, &capturedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		res.Target.Source = model.ResolutionSource(source)
		res.Outcome = model.Outcome(outcome)
		res.Error = errDetail.String
		res.CapturedAt = capturedAt
		if profileJSON.Valid && profileJSON.String != "" {
			var profile model.CompanyProfile
			if err := json.Unmarshal([]byte(profileJSON.String), &profile); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal profile")
			}
			res.Profile = &profile
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRecord(row rowScanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		mode       string
		status     string
		outputPath sql.NullString
	)
	if err := row.Scan(&rec.ID, &mode, &status, &rec.TargetCount, &rec.SuccessCount, &rec.FailureCount,
		&outputPath, &rec.StartedAt, &rec.FinishedAt); err != nil {
		return nil, err
	}
	rec.Mode = model.Mode(mode)
	rec.Status = model.RunStatus(status)
	rec.OutputPath = outputPath.String
	return &rec, nil
}

func marshalProfile(res model.ScrapeResult) (sql.NullString, error) {
	if res.Profile == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(res.Profile)
	if err != nil {
		return sql.NullString{}, eris.Wrap(err, "store: marshal profile")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
