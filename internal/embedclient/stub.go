package embedclient

import (
	"context"
	"fmt"
)

// Stub is a scriptable Client for stage tests.
type Stub struct {
	Dim   int
	Calls int
	// Vector, if set, overrides deterministic-by-hash vectors: it is
	// called once per text with that text's index within the batch.
	Vector func(call int, text string) []float64
	// FailCalls makes the first N calls return Err before succeeding,
	// exercising the batch-level retry path (spec.md §4.6).
	FailCalls int
	Err       error
}

var _ Client = (*Stub)(nil)

func (s *Stub) Embed(_ context.Context, _ string, texts []string) ([][]float64, Response, error) {
	if s.Calls < s.FailCalls {
		s.Calls++
		if s.Err != nil {
			return nil, Response{}, s.Err
		}
		return nil, Response{}, fmt.Errorf("embedclient.Stub: simulated transient failure")
	}
	s.Calls++

	out := make([][]float64, len(texts))
	for i, text := range texts {
		if s.Vector != nil {
			out[i] = s.Vector(i, text)
			continue
		}
		dim := s.Dim
		if dim == 0 {
			dim = 3
		}
		v := make([]float64, dim)
		for j := range v {
			v[j] = float64((hash(text)+j)%97) / 97.0
		}
		out[i] = v
	}
	return out, Response{PromptTokens: len(texts) * 5}, nil
}

func hash(s string) int {
	h := 0
	for _, r := range s {
		h = h*31 + int(r)
	}
	if h < 0 {
		h = -h
	}
	return h
}
