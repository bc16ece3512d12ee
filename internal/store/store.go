// Package store records batch run history so past scrapes can be listed
// and inspected after the fact. Two backends exist: SQLite for local use
// and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/sells-group/linkedin-cli/internal/model"
)

// RunRecord is the stored summary of one batch run.
type RunRecord struct {
	ID           string          `json:"id"`
	Mode         model.Mode      `json:"mode"`
	Status       model.RunStatus `json:"status"`
	TargetCount  int             `json:"target_count"`
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	OutputPath   string          `json:"output_path,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status model.RunStatus
	Limit  int
}

// Store persists batch runs and their per-target results.
type Store interface {
	// RecordRun writes the run summary and every per-target result
	// (successes and failures) atomically.
	RecordRun(ctx context.Context, run *model.BatchRun) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)
	// ListResults returns a run's results in attempt order.
	ListResults(ctx context.Context, runID string) ([]model.ScrapeResult, error)

	Migrate(ctx context.Context) error
	Close() error
}

// recordFromRun flattens a BatchRun into its stored summary.
func recordFromRun(run *model.BatchRun) RunRecord {
	return RunRecord{
		ID:           run.ID,
		Mode:         run.Mode,
		Status:       run.Status(),
		TargetCount:  len(run.Targets),
		SuccessCount: len(run.Results),
		FailureCount: len(run.Failures),
		OutputPath:   run.OutputPath,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
}

// allResults merges successes and failures ordered by capture time, so the
// stored rows reflect attempt order.
func allResults(run *model.BatchRun) []model.ScrapeResult {
	merged := make([]model.ScrapeResult, 0, len(run.Results)+len(run.Failures))
	merged = append(merged, run.Results...)
	merged = append(merged, run.Failures...)
	for i := 1; i < len(merged); i++ {
		for j := i; j > 0 && merged[j].CapturedAt.Before(merged[j-1].CapturedAt); j-- {
			merged[j], merged[j-1] = merged[j-1], merged[j]
		}
	}
	return merged
}
