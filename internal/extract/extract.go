// Package extract pulls structured company data out of LinkedIn company
// pages fetched through a live session.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/linkedin-cli/internal/model"
	"github.com/sells-group/linkedin-cli/internal/session"
)

// Extractor fetches one target through the session and returns its field
// record. Any error is a per-target extraction failure, never fatal for
// the batch.
type Extractor interface {
	Extract(ctx context.Context, handle session.Handle, target model.Target) (*model.CompanyProfile, error)
}

// PageExtractor renders the company page in the session's browser and
// parses the about fields plus the numeric company ID from the source.
type PageExtractor struct {
	pageTimeout time.Duration
}

// NewPageExtractor creates an extractor with the given page-load timeout.
func NewPageExtractor(pageTimeout time.Duration) *PageExtractor {
	if pageTimeout <= 0 {
		pageTimeout = 30 * time.Second
	}
	return &PageExtractor{pageTimeout: pageTimeout}
}

// Extract implements Extractor.
func (e *PageExtractor) Extract(ctx context.Context, handle session.Handle, target model.Target) (*model.CompanyProfile, error) {
	aboutURL := strings.TrimSuffix(target.URL, "/") + "/about/"

	html, err := handle.PageHTML(ctx, aboutURL, e.pageTimeout)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: fetch %s", aboutURL)
	}

	profile, err := ParseProfile(html)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: parse %s", aboutURL)
	}
	profile.LinkedInURL = target.URL

	zap.L().Debug("extract: parsed company page",
		zap.String("company", target.Name),
		zap.String("linkedin_id", profile.LinkedInCompanyID),
		zap.String("industry", profile.Industry),
	)
	return profile, nil
}
