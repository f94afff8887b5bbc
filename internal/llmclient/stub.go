package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// StubResponder returns the raw JSON body for one Chat call, or an
// error to simulate a transient failure.
type StubResponder func(call int, req Request) (body string, err error)

// Stub is a scriptable Client for stage tests: each call to Chat
// consumes the next entry of Responses in call order, across all calls,
// and uses Default once no scripted entry remains. It is the
// in-process equivalent of the teacher's common/llm test doubles.
type Stub struct {
	mu        sync.Mutex
	calls     int
	Default   StubResponder
	Responses []StubResponse
}

// StubResponse is one canned answer for a given call index — a sequence
// of StubResponses with Err set on the first entries and JSON set on
// the last exercises the retry-then-succeed path (spec.md E6).
type StubResponse struct {
	JSON string
	Err  error
}

var _ Client = (*Stub)(nil)

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Model() string { return "stub-model" }

func (s *Stub) Chat(_ context.Context, req Request, result any) (Response, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	var body string
	var err error
	if idx < len(s.Responses) {
		r := s.Responses[idx]
		body, err = r.JSON, r.Err
	} else if s.Default != nil {
		body, err = s.Default(idx, req)
	} else {
		return Response{}, fmt.Errorf("llmclient.Stub: no response configured for call %d", idx)
	}

	if err != nil {
		return Response{}, err
	}
	if err := json.Unmarshal([]byte(body), result); err != nil {
		return Response{}, fmt.Errorf("llmclient.Stub: unmarshal canned response: %w", err)
	}
	return Response{PromptTokens: 10, CompletionTokens: 10}, nil
}

// Calls reports how many times Chat has been invoked.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
