package embedclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config configures the OpenAI-backed Client.
type Config struct {
	APIKey  string
	BaseURL string
}

type openaiClient struct {
	client openai.Client
}

// NewOpenAI builds an embeddings Client backed by the OpenAI-compatible
// embeddings API, the sibling endpoint of the chat client in
// internal/llmclient — same SDK, same client construction shape.
func NewOpenAI(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedclient: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openaiClient{client: openai.NewClient(opts...)}, nil
}

func (c *openaiClient) Embed(ctx context.Context, model string, texts []string) ([][]float64, Response, error) {
	if len(texts) == 0 {
		return nil, Response{}, nil
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, Response{}, fmt.Errorf("openai embeddings: %w", err)
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	if len(data) != len(texts) {
		return nil, Response{}, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(texts), len(data))
	}

	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}

	return out, Response{PromptTokens: int(resp.Usage.PromptTokens)}, nil
}

// IsRetryable classifies an error from the embeddings collaborator with
// the same 4xx-vs-network/5xx rule as llmclient.IsRetryable (spec.md §5).
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			slog.WarnContext(ctx, "embedding error retryable", "status_code", apiErr.StatusCode)
			return true
		}
		slog.ErrorContext(ctx, "embedding error not retryable", "status_code", apiErr.StatusCode)
		return false
	}
	slog.WarnContext(ctx, "embedding network error, treating as retryable", "error", err)
	return true
}
