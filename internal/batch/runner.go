// Package batch drives an ordered list of targets through one automation
// session, recovering from session loss, throttling between targets, and
// persisting results as it goes. Partial results are a success mode: the
// only error that aborts a run is a failed session acquisition.
package batch

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/linkedin-cli/internal/extract"
	"github.com/sells-group/linkedin-cli/internal/model"
	"github.com/sells-group/linkedin-cli/internal/session"
)

// Sink durably records the full results-so-far after every success, so a
// crash loses at most the in-flight target.
type Sink interface {
	Persist(ctx context.Context, results []model.ScrapeResult) error
}

// Options configure a batch run.
type Options struct {
	Mode     model.Mode
	DelayMin time.Duration // inter-target throttle window, inclusive
	DelayMax time.Duration
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = model.ModeSingleSession
	}
	if o.DelayMin <= 0 {
		o.DelayMin = 3 * time.Second
	}
	if o.DelayMax < o.DelayMin {
		o.DelayMax = o.DelayMin
	}
	return o
}

// Runner executes batches. It exclusively owns the live session for the
// duration of a run; nothing else touches it.
type Runner struct {
	sessions  *session.Manager
	extractor extract.Extractor
	sink      Sink
	opts      Options

	// sleep and now are swapped out by tests.
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// NewRunner wires a runner from its collaborators. sink may be nil to skip
// progressive persistence.
func NewRunner(sessions *session.Manager, extractor extract.Extractor, sink Sink, opts Options) *Runner {
	return &Runner{
		sessions:  sessions,
		extractor: extractor,
		sink:      sink,
		opts:      opts.withDefaults(),
		sleep:     sleepCtx,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run processes targets strictly in order on a single logical thread.
// Per-target extraction failures are recorded and skipped over; only a
// session acquisition failure (at start or during recovery) aborts the run.
// An aborted run still carries every result gathered before the abort.
func (r *Runner) Run(ctx context.Context, targets []model.Target) (*model.BatchRun, error) {
	run := &model.BatchRun{
		ID:        uuid.New().String(),
		Mode:      r.opts.Mode,
		Targets:   targets,
		StartedAt: r.now(),
	}
	defer func() { run.FinishedAt = r.now() }()

	log := zap.L().With(zap.String("run_id", run.ID), zap.String("mode", string(run.Mode)))
	log.Info("batch: starting", zap.Int("targets", len(targets)))

	var sess *session.Session
	defer func() { r.sessions.Close(sess) }()

	if r.opts.Mode == model.ModeSingleSession && len(targets) > 0 {
		var err error
		sess, err = r.sessions.Acquire(ctx)
		if err != nil {
			run.Aborted = true
			return run, eris.Wrap(err, "batch: initial session")
		}
	}

	for i, target := range targets {
		// Cancellation is honored only at target boundaries so an
		// in-flight extraction is never left half-recorded.
		if ctx.Err() != nil {
			log.Warn("batch: canceled, stopping between targets", zap.Int("attempted", run.Cursor))
			run.Aborted = true
			return run, eris.Wrap(ctx.Err(), "batch: canceled")
		}

		tlog := log.With(
			zap.String("company", target.Name),
			zap.Int("position", i+1),
			zap.Int("total", len(targets)),
		)
		tlog.Info("batch: processing target", zap.String("url", target.URL))

		switch r.opts.Mode {
		case model.ModeSingleSession:
			if !r.sessions.Validate(ctx, sess) {
				tlog.Warn("batch: session unhealthy, recovering")
				replacement, err := r.sessions.Recover(ctx, sess)
				if err != nil {
					run.Aborted = true
					return run, eris.Wrap(err, "batch: session recovery")
				}
				sess = replacement
			}
		case model.ModePerCompany:
			var err error
			sess, err = r.sessions.Acquire(ctx)
			if err != nil {
				run.Aborted = true
				return run, eris.Wrap(err, "batch: per-target session")
			}
		}

		result := r.attempt(ctx, sess, target)
		run.Cursor = i + 1

		if result.Outcome == model.OutcomeSuccess {
			run.Results = append(run.Results, result)
			r.persist(ctx, run.Results, tlog)
			tlog.Info("batch: target scraped",
				zap.String("name", profileName(result)),
				zap.String("linkedin_id", profileID(result)),
			)
		} else {
			run.Failures = append(run.Failures, result)
			tlog.Warn("batch: extraction failed, continuing", zap.String("error", result.Error))
		}

		if r.opts.Mode == model.ModePerCompany {
			r.sessions.Close(sess)
			sess = nil
		}

		if i < len(targets)-1 {
			delay := r.delay()
			tlog.Debug("batch: throttling before next target", zap.Duration("delay", delay))
			r.sleep(ctx, delay)
		}
	}

	log.Info("batch: complete",
		zap.Int("succeeded", len(run.Results)),
		zap.Int("failed", len(run.Failures)),
	)
	return run, nil
}

// attempt runs one extraction and classifies its outcome. Extraction errors
// never escape; they become the target's recorded failure.
func (r *Runner) attempt(ctx context.Context, sess *session.Session, target model.Target) model.ScrapeResult {
	result := model.ScrapeResult{Target: target, CapturedAt: r.now()}

	profile, err := r.extractor.Extract(ctx, sess.Handle(), target)
	if err != nil {
		result.Outcome = model.OutcomeExtractionFailed
		result.Error = err.Error()
		return result
	}

	result.Outcome = model.OutcomeSuccess
	result.Profile = profile
	return result
}

// persist snapshots everything gathered so far. Failures are warnings: the
// in-memory results stay authoritative and the next success retries.
func (r *Runner) persist(ctx context.Context, results []model.ScrapeResult, log *zap.Logger) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Persist(ctx, results); err != nil {
		log.Warn("batch: progressive persist failed, results retained in memory", zap.Error(err))
	}
}

func (r *Runner) delay() time.Duration {
	window := r.opts.DelayMax - r.opts.DelayMin
	if window <= 0 {
		return r.opts.DelayMin
	}
	return r.opts.DelayMin + time.Duration(rand.Float64()*float64(window))
}

func profileName(res model.ScrapeResult) string {
	if res.Profile != nil {
		return res.Profile.Name
	}
	return ""
}

func profileID(res model.ScrapeResult) string {
	if res.Profile != nil {
		return res.Profile.LinkedInCompanyID
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
