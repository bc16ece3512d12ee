package model

import "time"

// ResolutionSource records how a company name was turned into a LinkedIn URL.
type ResolutionSource string

const (
	// SourceSpecialCase means the name matched the curated override table.
	SourceSpecialCase ResolutionSource = "special_case"
	// SourceGenericSlug means the URL was derived by slugification rules.
	SourceGenericSlug ResolutionSource = "generic_slug"
	// SourceVerified means an AI verifier confirmed the URL.
	SourceVerified ResolutionSource = "verified"
)

// Target is a single company to scrape, immutable once resolved.
type Target struct {
	Name   string           `json:"name"`
	URL    string           `json:"url"`
	Source ResolutionSource `json:"resolution_source"`
}

// Outcome classifies what happened to one target during a batch run.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeExtractionFailed Outcome = "extraction_failed"
	OutcomeSkipped          Outcome = "skipped"
)

// CompanyProfile holds the fields a LinkedIn company page may expose.
// Any field can be empty; the extractor populates what it finds.
type CompanyProfile struct {
	Name              string   `json:"name,omitempty"`
	AboutUs           string   `json:"about_us,omitempty"`
	Website           string   `json:"website,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	CompanySize       string   `json:"company_size,omitempty"`
	Headquarters      string   `json:"headquarters,omitempty"`
	Founded           string   `json:"founded,omitempty"`
	Specialties       []string `json:"specialties,omitempty"`
	CompanyType       string   `json:"company_type,omitempty"`
	LinkedInURL       string   `json:"linkedin_url,omitempty"`
	LinkedInCompanyID string   `json:"linkedin_company_id,omitempty"`
}

// ScrapeResult is the outcome of one attempted target. At most one exists
// per target per run, created once and never mutated afterward.
type ScrapeResult struct {
	Target     Target          `json:"target"`
	Profile    *CompanyProfile `json:"profile,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`
	Outcome    Outcome         `json:"outcome"`
	Error      string          `json:"error,omitempty"`
}

// Mode selects the session strategy for a batch.
type Mode string

const (
	// ModeSingleSession reuses one authenticated session across targets,
	// recovering it when the liveness probe fails.
	ModeSingleSession Mode = "single_session"
	// ModePerCompany opens and closes a fresh session for every target.
	ModePerCompany Mode = "per_company"
)

// ParseMode validates a mode string from config or flags.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeSingleSession, ModePerCompany:
		return Mode(s), true
	default:
		return "", false
	}
}

// RunStatus is the terminal state of a batch run as recorded in the store.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusAborted  RunStatus = "aborted"
)

// BatchRun is the accumulated state of one batch. Results holds successful
// extractions only, append-only and ordered by attempt; failed targets are
// kept separately so the output snapshot stays clean while the run store
// retains per-target traceability. The cursor counts attempted targets and
// never moves backwards.
type BatchRun struct {
	ID         string         `json:"id"`
	Mode       Mode           `json:"mode"`
	Targets    []Target       `json:"targets"`
	Cursor     int            `json:"cursor"`
	Results    []ScrapeResult `json:"results"`
	Failures   []ScrapeResult `json:"failures,omitempty"`
	Aborted    bool           `json:"aborted"`
	OutputPath string         `json:"output_path,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Status maps the run's end state to a store status.
func (r *BatchRun) Status() RunStatus {
	if r.Aborted {
		return RunStatusAborted
	}
	return RunStatusComplete
}

// Summary tallies a completed or aborted run for user-facing reporting.
type Summary struct {
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
	Results      []ScrapeResult `json:"results"`
}

// Summarize derives counts from a run without re-reading raw data.
func Summarize(run *BatchRun) Summary {
	return Summary{
		SuccessCount: len(run.Results),
		FailureCount: len(run.Failures),
		Results:      run.Results,
	}
}

// CompanyIDs returns the numeric LinkedIn IDs recovered during the run,
// in attempt order, skipping results without one.
func (s Summary) CompanyIDs() []string {
	var ids []string
	for _, res := range s.Results {
		if res.Profile != nil && res.Profile.LinkedInCompanyID != "" {
			ids = append(ids, res.Profile.LinkedInCompanyID)
		}
	}
	return ids
}
