// Package resolver turns company names into LinkedIn company page URLs.
//
// Resolution is a two-tier algorithm: a curated override table for companies
// whose LinkedIn slug does not follow from their name, then generic
// slugification. An optional AI verifier can supersede the generic slug but
// never an override.
package resolver

import (
	"bufio"
	"context"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/sells-group/linkedin-cli/internal/model"
)

const companyURLPrefix = "https://www.linkedin.com/company/"

// ErrNotFound is returned by a Verifier when no LinkedIn page exists for a
// name. It is non-fatal: resolution falls back to the generic slug.
var ErrNotFound = eris.New("resolver: linkedin page not found")

// Verifier confirms a company's LinkedIn URL from its name. Implementations
// are expected to be rate-limited externally (the Resolver applies its own
// limiter on top).
type Verifier interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// defaultOverrides maps lower-cased company names to their actual LinkedIn
// slugs where slugification would guess wrong.
var defaultOverrides = map[string]string{
	"meta":                "meta",
	"alphabet":            "google",
	"microsoft":           "microsoft",
	"alibaba group":       "alibaba",
	"hp inc.":             "hp",
	"general motors":      "general-motors",
	"mckinsey & company":  "mckinsey-and-company",
	"samsung electronics": "samsung-electronics",
	"volkswagen group":    "volkswagen-group",
	"unity technologies":  "unity-technologies-sf",
	"fisker inc.":         "fisker-automotive",
	"anduril industries":  "anduril",
	"coupa software":      "coupa-software",
	"scale ai":            "scaleapi",
	"hugging face":        "huggingface",
}

// Resolver produces Targets from company names.
type Resolver struct {
	overrides   map[string]string
	verifier    Verifier
	limiter     *rate.Limiter
	concurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithVerifier enables AI verification of generic slugs.
func WithVerifier(v Verifier) Option {
	return func(r *Resolver) { r.verifier = v }
}

// WithOverrides merges extra name→slug overrides on top of the defaults.
func WithOverrides(m map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range m {
			r.overrides[strings.ToLower(k)] = v
		}
	}
}

// WithRateLimit sets the verifier requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(r *Resolver) {
		r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithConcurrency bounds parallel verifier lookups in ResolveAll.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Resolver with the default override table.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		overrides:   make(map[string]string, len(defaultOverrides)),
		limiter:     rate.NewLimiter(0.5, 1), // one lookup per 2s
		concurrency: 1,
	}
	for k, v := range defaultOverrides {
		r.overrides[k] = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps one company name to a Target. Overrides are authoritative
// and bypass verification. Verifier failures fall back to the generic slug.
func (r *Resolver) Resolve(ctx context.Context, name string) (model.Target, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return model.Target{}, eris.New("resolver: empty company name")
	}

	if slug, ok := r.overrides[strings.ToLower(trimmed)]; ok {
		return model.Target{
			Name:   trimmed,
			URL:    companyURLPrefix + slug,
			Source: model.SourceSpecialCase,
		}, nil
	}

	slug := Slugify(trimmed)
	if slug == "" {
		return model.Target{}, eris.Errorf("resolver: name %q yields no usable slug", trimmed)
	}

	if r.verifier != nil {
		if url, err := r.verify(ctx, trimmed); err == nil {
			return model.Target{Name: trimmed, URL: url, Source: model.SourceVerified}, nil
		} else if !eris.Is(err, ErrNotFound) {
			zap.L().Warn("resolver: verification failed, using generated slug",
				zap.String("company", trimmed),
				zap.Error(err),
			)
		}
	}

	return model.Target{
		Name:   trimmed,
		URL:    companyURLPrefix + slug,
		Source: model.SourceGenericSlug,
	}, nil
}

func (r *Resolver) verify(ctx context.Context, name string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "resolver: rate limiter")
	}
	return r.verifier.Lookup(ctx, name)
}

// ResolveAll resolves names in input order. Names that cannot be resolved
// are logged and omitted. Verifier lookups run concurrently up to the
// configured bound; the output order still matches the input.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) ([]model.Target, error) {
	resolved := make([]*model.Target, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, name := range names {
		g.Go(func() error {
			target, err := r.Resolve(gctx, name)
			if err != nil {
				zap.L().Warn("resolver: skipping unresolvable name",
					zap.String("company", name),
					zap.Error(err),
				)
				return nil
			}
			resolved[i] = &target
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "resolver: resolve all")
	}

	targets := make([]model.Target, 0, len(names))
	for _, t := range resolved {
		if t != nil {
			targets = append(targets, *t)
		}
	}
	return targets, nil
}

// Slugify applies the generic name→slug rules: fold to ASCII lower case,
// spell out "&", drop everything that is not alphanumeric/space/dash,
// collapse spaces to single dashes, collapse dash runs, trim dashes.
func Slugify(name string) string {
	s := strings.ToLower(foldASCII(name))
	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	s = strings.Join(fields, "-")

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// foldASCII strips combining marks so "Café" slugifies to "cafe".
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NamesFromFile reads newline-delimited company names, skipping blank lines.
func NamesFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: open %s", path)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "resolver: read %s", path)
	}
	return names, nil
}
