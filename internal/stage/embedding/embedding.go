// Package embedding implements spec.md §4.6: batch every argument's
// text through the embeddings collaborator and assign the resulting
// vectors back in input order.
package embedding

import (
	"context"
	"fmt"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/embedclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/retry"
)

// MaxBatchSize is the largest request spec.md §4.6 allows per call.
const MaxBatchSize = 1000

// Run embeds every argument in pc.Arguments, batching ≤MaxBatchSize
// texts per request, and requires every vector in the run to share one
// dimensionality.
func Run(ctx context.Context, pc *pctx.Context, cfg domainmodel.Config, client embedclient.Client) (domainmodel.TokenUsage, error) {
	if len(pc.Arguments) == 0 {
		return domainmodel.TokenUsage{}, nil
	}

	var usage domainmodel.TokenUsage
	dim := -1

	for start := 0; start < len(pc.Arguments); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(pc.Arguments) {
			end = len(pc.Arguments)
		}
		batch := pc.Arguments[start:end]
		texts := make([]string, len(batch))
		for i, a := range batch {
			texts[i] = a.Argument
		}

		vectors, resp, err := embedWithRetry(ctx, client, cfg.EmbeddingModel, texts)
		if err != nil {
			return domainmodel.TokenUsage{}, err
		}
		usage = usage.Add(resp.Usage())

		for i, v := range vectors {
			if dim == -1 {
				dim = len(v)
			} else if len(v) != dim {
				return domainmodel.TokenUsage{}, &domainmodel.EmbeddingError{
					Attempts: 1,
					Err:      fmt.Errorf("inconsistent embedding dimension: got %d, want %d", len(v), dim),
				}
			}
			pc.Arguments[start+i].Embedding = v
		}
	}

	return usage, nil
}

func embedWithRetry(ctx context.Context, client embedclient.Client, model string, texts []string) ([][]float64, embedclient.Response, error) {
	var vectors [][]float64
	var resp embedclient.Response
	attempts, err := retry.Do(ctx, retry.DefaultPolicy(), func(e error) bool {
		return embedclient.IsRetryable(ctx, e)
	}, func() error {
		var callErr error
		vectors, resp, callErr = client.Embed(ctx, model, texts)
		return callErr
	})
	if err != nil {
		return nil, embedclient.Response{}, &domainmodel.EmbeddingError{Attempts: attempts, Err: err}
	}
	return vectors, resp, nil
}

// Params returns the parameter set the planner tracks for this stage
// (spec.md §4.2: "embedding: {model}").
func Params(cfg domainmodel.Config) map[string]any {
	return map[string]any{"model": cfg.EmbeddingModel}
}
