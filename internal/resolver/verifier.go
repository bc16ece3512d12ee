package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/linkedin-cli/internal/resilience"
	"github.com/sells-group/linkedin-cli/pkg/anthropic"
)

const verifyPrompt = `Find the official LinkedIn company page for %q.

Return only the exact LinkedIn URL in this format: https://www.linkedin.com/company/[slug]
If not found, return: NOT_FOUND`

var linkedInURLPattern = regexp.MustCompile(`https://www\.linkedin\.com/company/[a-zA-Z0-9\-_]+`)

// AIVerifier resolves company names to LinkedIn URLs with a Claude lookup.
// Transient API failures are retried; a NOT_FOUND answer maps to ErrNotFound.
type AIVerifier struct {
	client anthropic.Client
	model  string
	retry  resilience.Config
}

// NewAIVerifier creates a verifier on top of an Anthropic client.
func NewAIVerifier(client anthropic.Client, model string) *AIVerifier {
	return &AIVerifier{
		client: client,
		model:  model,
		retry: resilience.Config{
			Attempts:  3,
			BaseDelay: time.Second,
			Name:      "verifier",
		},
	}
}

// Lookup implements Verifier.
func (v *AIVerifier) Lookup(ctx context.Context, name string) (string, error) {
	temp := 0.0
	resp, err := resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return v.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       v.model,
			MaxTokens:   256,
			Temperature: &temp,
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(verifyPrompt, name)},
			},
		})
	})
	if err != nil {
		return "", eris.Wrapf(err, "resolver: verify %q", name)
	}

	text := strings.TrimSpace(resp.Text)
	if url := linkedInURLPattern.FindString(text); url != "" {
		return url, nil
	}
	if strings.Contains(strings.ToUpper(text), "NOT_FOUND") {
		return "", ErrNotFound
	}
	return "", eris.Errorf("resolver: unparseable verifier answer for %q", name)
}
