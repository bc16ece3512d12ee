package session

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	loginURL = "https://www.linkedin.com/login"

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// BrowserConfig tunes the Chromium driver.
type BrowserConfig struct {
	Headless       bool
	PageTimeout    time.Duration // per-navigation bound
	ChallengeGrace time.Duration // wait applied when a security challenge appears
	UserAgent      string
}

// BrowserDriver opens rod-controlled Chromium handles with automation
// indicators dialed down.
type BrowserDriver struct {
	cfg BrowserConfig
}

// NewBrowserDriver creates a Driver backed by go-rod.
func NewBrowserDriver(cfg BrowserConfig) *BrowserDriver {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if cfg.ChallengeGrace <= 0 {
		cfg.ChallengeGrace = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &BrowserDriver{cfg: cfg}
}

// Open launches a Chromium instance and returns a Handle bound to one page.
func (d *BrowserDriver) Open(ctx context.Context) (Handle, error) {
	l := launcher.New().
		Headless(d.cfg.Headless).
		Leakless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-extensions").
		Set("disable-blink-features", "AutomationControlled").
		Set("user-agent", d.cfg.UserAgent)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "session: launch chromium")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, eris.Wrap(err, "session: connect browser")
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, eris.Wrap(err, "session: open page")
	}

	return &browserHandle{
		browser:        browser,
		launcher:       l,
		page:           page,
		challengeGrace: d.cfg.ChallengeGrace,
	}, nil
}

type browserHandle struct {
	browser        *rod.Browser
	launcher       *launcher.Launcher
	page           *rod.Page
	challengeGrace time.Duration
	closed         bool
}

// Login fills the LinkedIn sign-in form and waits out security challenges.
func (h *browserHandle) Login(ctx context.Context, creds Credentials) error {
	page := h.page.Context(ctx)

	if err := page.Navigate(loginURL); err != nil {
		return eris.Wrap(err, "session: navigate login")
	}
	if err := page.WaitLoad(); err != nil {
		return eris.Wrap(err, "session: wait login page")
	}

	if err := fill(page, "#username", creds.Email); err != nil {
		return err
	}
	if err := fill(page, "#password", creds.Password); err != nil {
		return err
	}

	submit, err := page.Element(`button[type="submit"]`)
	if err != nil {
		return eris.Wrap(err, "session: find submit button")
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return eris.Wrap(err, "session: submit login")
	}
	if err := page.WaitLoad(); err != nil {
		return eris.Wrap(err, "session: wait post-login")
	}

	// Human-like pause before poking at the result.
	humanPause(ctx, 3*time.Second, 5*time.Second)

	if h.challenged(ctx) {
		zap.L().Warn("session: security challenge detected, waiting",
			zap.Duration("grace", h.challengeGrace),
		)
		sleepCtx(ctx, h.challengeGrace)
	}

	url, err := h.CurrentURL(ctx)
	if err != nil {
		return eris.Wrap(err, "session: read post-login url")
	}
	if !loginLooksSuccessful(url) {
		zap.L().Warn("session: login status unclear, continuing", zap.String("url", url))
	}
	return nil
}

// challenged sniffs the current URL and page source for challenge markers.
func (h *browserHandle) challenged(ctx context.Context) bool {
	url, err := h.CurrentURL(ctx)
	if err != nil {
		return false
	}
	lower := strings.ToLower(url)
	if strings.Contains(lower, "challenge") || strings.Contains(lower, "verification") {
		return true
	}
	html, err := h.page.Context(ctx).HTML()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(html), "security verification")
}

func (h *browserHandle) CurrentURL(_ context.Context) (string, error) {
	info, err := h.page.Info()
	if err != nil {
		return "", eris.Wrap(err, "session: page info")
	}
	return info.URL, nil
}

func (h *browserHandle) PageHTML(ctx context.Context, url string, timeout time.Duration) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := h.page.Context(tctx)
	if err := page.Navigate(url); err != nil {
		return "", eris.Wrapf(err, "session: navigate %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return "", eris.Wrapf(err, "session: load %s", url)
	}
	html, err := page.HTML()
	if err != nil {
		return "", eris.Wrapf(err, "session: read html %s", url)
	}
	return html, nil
}

func (h *browserHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.browser.Close()
	h.launcher.Cleanup()
	if err != nil {
		return eris.Wrap(err, "session: close browser")
	}
	return nil
}

func fill(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return eris.Wrapf(err, "session: find %s", selector)
	}
	if err := el.Input(value); err != nil {
		return eris.Wrapf(err, "session: fill %s", selector)
	}
	return nil
}

// loginLooksSuccessful checks for the post-login destinations LinkedIn uses.
func loginLooksSuccessful(url string) bool {
	return strings.Contains(url, "/feed") ||
		strings.Contains(url, "/mynetwork") ||
		strings.Contains(url, "linkedin.com/in/")
}

func humanPause(ctx context.Context, min, max time.Duration) {
	d := min + time.Duration(rand.Float64()*float64(max-min))
	sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
