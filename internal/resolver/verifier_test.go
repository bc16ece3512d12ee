package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkedin-cli/pkg/anthropic"
)

// fakeAnthropicClient implements anthropic.Client for testing.
type fakeAnthropicClient struct {
	text string
	err  error
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{Text: f.text}, nil
}

func TestAIVerifier_Lookup_URL(t *testing.T) {
	v := NewAIVerifier(&fakeAnthropicClient{
		text: "The official page is https://www.linkedin.com/company/huggingface — hope that helps.",
	}, "claude-haiku-4-5-20251001")

	url, err := v.Lookup(context.Background(), "Hugging Face")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/huggingface", url)
}

func TestAIVerifier_Lookup_NotFound(t *testing.T) {
	v := NewAIVerifier(&fakeAnthropicClient{text: "NOT_FOUND"}, "claude-haiku-4-5-20251001")

	_, err := v.Lookup(context.Background(), "No Such Company")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAIVerifier_Lookup_Unparseable(t *testing.T) {
	v := NewAIVerifier(&fakeAnthropicClient{text: "I could not determine that."}, "claude-haiku-4-5-20251001")

	_, err := v.Lookup(context.Background(), "Ambiguous Co")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
