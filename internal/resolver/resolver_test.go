package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkedin-cli/internal/model"
)

// fakeVerifier implements Verifier for testing.
type fakeVerifier struct {
	url   string
	err   error
	calls int
}

func (f *fakeVerifier) Lookup(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.url, f.err
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Unknown Startup Inc.", "unknown-startup-inc"},
		{"McKinsey & Company", "mckinsey-and-company"},
		{"  Spaced   Out  ", "spaced-out"},
		{"Dash--Heavy --- Name", "dash-heavy-name"},
		{"Café Société", "cafe-societe"},
		{"AT&T", "atandt"},
		{"snake_case co", "snake_case-co"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name), tt.name)
	}
}

func TestResolve_SpecialCases(t *testing.T) {
	r := New()

	target, err := r.Resolve(context.Background(), "Meta")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/meta", target.URL)
	assert.Equal(t, model.SourceSpecialCase, target.Source)

	target, err = r.Resolve(context.Background(), "Alphabet")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/google", target.URL)

	target, err = r.Resolve(context.Background(), "Hugging Face")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/huggingface", target.URL)
}

func TestResolve_GenericSlug(t *testing.T) {
	r := New()

	target, err := r.Resolve(context.Background(), "Unknown Startup Inc.")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/unknown-startup-inc", target.URL)
	assert.Equal(t, model.SourceGenericSlug, target.Source)
}

func TestResolve_EmptyName(t *testing.T) {
	r := New()
	_, err := r.Resolve(context.Background(), "   ")
	assert.Error(t, err)
}

func TestResolve_NoUsableSlug(t *testing.T) {
	r := New()
	_, err := r.Resolve(context.Background(), "???")
	assert.Error(t, err)
}

func TestResolve_VerifierSupersedes(t *testing.T) {
	v := &fakeVerifier{url: "https://www.linkedin.com/company/scaleapi"}
	r := New(WithVerifier(v), WithRateLimit(1000))

	target, err := r.Resolve(context.Background(), "Scale")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/scaleapi", target.URL)
	assert.Equal(t, model.SourceVerified, target.Source)
	assert.Equal(t, 1, v.calls)
}

func TestResolve_VerifierNeverOverridesSpecialCase(t *testing.T) {
	v := &fakeVerifier{url: "https://www.linkedin.com/company/wrong"}
	r := New(WithVerifier(v), WithRateLimit(1000))

	target, err := r.Resolve(context.Background(), "Alphabet")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/google", target.URL)
	assert.Zero(t, v.calls)
}

func TestResolve_VerifierNotFoundFallsBack(t *testing.T) {
	v := &fakeVerifier{err: ErrNotFound}
	r := New(WithVerifier(v), WithRateLimit(1000))

	target, err := r.Resolve(context.Background(), "Obscure Widgets LLC")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/obscure-widgets-llc", target.URL)
	assert.Equal(t, model.SourceGenericSlug, target.Source)
}

func TestResolve_VerifierErrorFallsBack(t *testing.T) {
	v := &fakeVerifier{err: errors.New("api timeout")}
	r := New(WithVerifier(v), WithRateLimit(1000))

	target, err := r.Resolve(context.Background(), "Obscure Widgets LLC")
	require.NoError(t, err)
	assert.Equal(t, model.SourceGenericSlug, target.Source)
}

func TestResolveAll_PreservesOrderAndSkipsFailures(t *testing.T) {
	r := New(WithConcurrency(4))

	targets, err := r.ResolveAll(context.Background(), []string{"Meta", "???", "Unknown Startup Inc."})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "Meta", targets[0].Name)
	assert.Equal(t, "Unknown Startup Inc.", targets[1].Name)
}

func TestWithOverrides(t *testing.T) {
	r := New(WithOverrides(map[string]string{"Acme Holdings": "acme"}))

	target, err := r.Resolve(context.Background(), "acme holdings")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/acme", target.URL)
	assert.Equal(t, model.SourceSpecialCase, target.Source)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\"acme holdings\": acme\n\"wayne enterprises\": wayne-corp\n"), 0o644))

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"acme holdings":     "acme",
		"wayne enterprises": "wayne-corp",
	}, overrides)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNamesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.txt")
	require.NoError(t, os.WriteFile(path, []byte("Meta\n\n  Hugging Face  \n\nStripe\n"), 0o644))

	names, err := NamesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Meta", "Hugging Face", "Stripe"}, names)
}

func TestNamesFromFile_Missing(t *testing.T) {
	_, err := NamesFromFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
