// Package session owns the lifecycle of the single stateful browser
// automation session used to fetch LinkedIn pages: acquire, validate,
// recover, close. The batch runner is the only consumer; all session
// interaction goes through the Manager.
package session

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrMissingCredentials indicates LINKEDIN_EMAIL / LINKEDIN_PASSWORD are not
// configured. This is a configuration error and aborts the run.
var ErrMissingCredentials = eris.New("session: LINKEDIN_EMAIL / LINKEDIN_PASSWORD not set")

// Credentials authenticate the LinkedIn session.
type Credentials struct {
	Email    string
	Password string
}

// Handle is one live browser automation handle. Implementations wrap a real
// browser (see BrowserDriver) or a fake in tests.
type Handle interface {
	// Login signs in with the given credentials. Implementations absorb
	// soft failures (security challenges) and only error when the login
	// flow itself breaks.
	Login(ctx context.Context, creds Credentials) error

	// CurrentURL reads the handle's current location. Used as the
	// liveness probe; must not mutate page state.
	CurrentURL(ctx context.Context) (string, error)

	// PageHTML navigates to url and returns the rendered page source,
	// bounded by timeout.
	PageHTML(ctx context.Context, url string, timeout time.Duration) (string, error)

	// Close tears the handle down. Safe to call more than once.
	Close() error
}

// Driver opens new handles.
type Driver interface {
	Open(ctx context.Context) (Handle, error)
}

// Session is the opaque handle plus its lifecycle metadata. Exactly one
// Session is live at a time under the runner's ownership.
type Session struct {
	handle        Handle
	Authenticated bool
	CreatedAt     time.Time
	closed        bool
}

// Handle exposes the underlying automation handle to the extractor.
func (s *Session) Handle() Handle { return s.handle }

// Closed reports whether the session has been torn down. A closed session
// is terminal; no operation revives it.
func (s *Session) Closed() bool { return s.closed }

// Manager builds, probes, recovers and closes sessions.
type Manager struct {
	driver Driver
	creds  Credentials
}

// NewManager creates a session manager. Credentials are checked at Acquire
// time, not here, so construction never fails.
func NewManager(driver Driver, creds Credentials) *Manager {
	return &Manager{driver: driver, creds: creds}
}

// Acquire opens a fresh handle and signs it in. A missing credential pair or
// a driver failure is fatal for the run. A login that completes the flow but
// cannot confirm success is tolerated, matching the site's unreliable
// post-login redirects.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if m.creds.Email == "" || m.creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	handle, err := m.driver.Open(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "session: open driver")
	}

	sess := &Session{handle: handle, CreatedAt: time.Now().UTC()}

	if err := handle.Login(ctx, m.creds); err != nil {
		if eris.Is(err, ErrMissingCredentials) || ctx.Err() != nil {
			_ = handle.Close()
			return nil, err
		}
		// The original flow proceeds unauthenticated when login is
		// inconclusive; public company pages may still render.
		zap.L().Warn("session: login failed, continuing unauthenticated", zap.Error(err))
		return sess, nil
	}

	sess.Authenticated = true
	zap.L().Info("session: acquired", zap.Time("created_at", sess.CreatedAt))
	return sess, nil
}

// Validate is a cheap liveness probe: it reads the current location and
// coerces any failure to unhealthy. It never mutates the session.
func (m *Manager) Validate(ctx context.Context, sess *Session) bool {
	if sess == nil || sess.closed {
		return false
	}
	url, err := sess.handle.CurrentURL(ctx)
	if err != nil {
		zap.L().Warn("session: liveness probe failed", zap.Error(err))
		return false
	}
	zap.L().Debug("session: alive", zap.String("current_url", url))
	return true
}

// Recover closes the dead session (best effort) and acquires a replacement
// exactly once. An Acquire failure here is fatal for the run.
func (m *Manager) Recover(ctx context.Context, sess *Session) (*Session, error) {
	m.Close(sess)

	replacement, err := m.Acquire(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "session: recover")
	}
	zap.L().Info("session: recovered with new handle")
	return replacement, nil
}

// Close tears a session down. Close failures are logged, never propagated.
func (m *Manager) Close(sess *Session) {
	if sess == nil || sess.closed {
		return
	}
	sess.closed = true
	if err := sess.handle.Close(); err != nil {
		zap.L().Warn("session: close failed", zap.Error(err))
	}
}
