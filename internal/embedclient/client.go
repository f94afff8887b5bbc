// Package embedclient is the thin interface the core depends on for the
// embeddings collaborator named in spec.md §6(b). Batching (≤1000 items
// per request) is the embedding stage's concern; this package just
// turns one batch of texts into one batch of vectors, in input order.
package embedclient

import (
	"context"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

// Response carries the token usage for one Embed call.
type Response struct {
	PromptTokens int
}

func (r Response) Usage() domainmodel.TokenUsage {
	return domainmodel.TokenUsage{PromptTokens: r.PromptTokens}
}

// Client embeds a batch of texts, returning one vector per text in the
// same order the texts were given (regardless of what order the
// underlying API returns them in — see openai.go's index-sort).
type Client interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float64, Response, error)
}
