package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkedin-cli/internal/model"
)

func TestRecordSkipped(t *testing.T) {
	run := &model.BatchRun{StartedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)}
	names := []string{"Meta", "???", "  Stripe  "}
	targets := []model.Target{
		{Name: "Meta", URL: "https://www.linkedin.com/company/meta"},
		{Name: "Stripe", URL: "https://www.linkedin.com/company/stripe"},
	}

	recordSkipped(run, names, targets)

	require.Len(t, run.Failures, 1)
	assert.Equal(t, "???", run.Failures[0].Target.Name)
	assert.Equal(t, model.OutcomeSkipped, run.Failures[0].Outcome)
	assert.Equal(t, run.StartedAt, run.Failures[0].CapturedAt)
}

func TestRecordSkipped_AllResolved(t *testing.T) {
	run := &model.BatchRun{}
	targets := []model.Target{{Name: "Meta"}}

	recordSkipped(run, []string{"Meta"}, targets)
	assert.Empty(t, run.Failures)
}
