package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	run := &BatchRun{
		Targets: []Target{
			{Name: "Acme", URL: "https://www.linkedin.com/company/acme"},
			{Name: "Globex", URL: "https://www.linkedin.com/company/globex"},
			{Name: "Initech", URL: "https://www.linkedin.com/company/initech"},
		},
		Results: []ScrapeResult{
			{Outcome: OutcomeSuccess, Profile: &CompanyProfile{LinkedInCompanyID: "1441"}},
			{Outcome: OutcomeSuccess, Profile: &CompanyProfile{}},
		},
		Failures: []ScrapeResult{
			{Outcome: OutcomeExtractionFailed, Error: "page load timeout"},
		},
	}

	s := Summarize(run)
	assert.Equal(t, 2, s.SuccessCount)
	assert.Equal(t, 1, s.FailureCount)
	assert.Len(t, s.Results, 2)
	assert.Equal(t, []string{"1441"}, s.CompanyIDs())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(&BatchRun{})
	assert.Zero(t, s.SuccessCount)
	assert.Zero(t, s.FailureCount)
	assert.Empty(t, s.CompanyIDs())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"single_session", ModeSingleSession, true},
		{"per_company", ModePerCompany, true},
		{"parallel", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBatchRunStatus(t *testing.T) {
	assert.Equal(t, RunStatusComplete, (&BatchRun{}).Status())
	assert.Equal(t, RunStatusAborted, (&BatchRun{Aborted: true}).Status())
}
