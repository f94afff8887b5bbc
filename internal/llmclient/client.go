// Package llmclient is the thin interface the core depends on for the
// "OpenAI-compatible chat endpoint supporting response_format of either
// json_object or JSON-schema" external collaborator named in spec.md
// §6(a). The core never knows about HTTP, API keys, or base URLs —
// those live in the OpenAI-backed implementation in openai.go; stage
// code only ever sees the Client interface.
package llmclient

import (
	"context"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

// Request is one structured-output chat call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       any
	MaxTokens    int
	Temperature  *float64
}

// Response carries the token counters spec.md §1 calls "opaque
// input/output token counters".
type Response struct {
	PromptTokens     int
	CompletionTokens int
}

func (r Response) Usage() domainmodel.TokenUsage {
	return domainmodel.TokenUsage{PromptTokens: r.PromptTokens, CompletionTokens: r.CompletionTokens}
}

// Client is the chat collaborator. Implementations populate result by
// unmarshalling the model's structured-output JSON into it.
type Client interface {
	Chat(ctx context.Context, req Request, result any) (Response, error)
	Model() string
}

// Temp is a convenience for building a non-nil temperature pointer.
func Temp(t float64) *float64 { return &t }
