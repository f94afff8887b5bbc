// Package retry implements the one retry/backoff policy spec.md §5
// names for every outbound call the pipeline makes: exponential
// schedule RETRY_DELAY × attempt, up to 3 retries, with a caller-
// supplied predicate distinguishing retryable from terminal errors.
package retry

import (
	"context"
	"time"
)

// Policy is the retry schedule. Attempts counts retries, not the
// initial try: Attempts=3 means up to 4 total calls.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultPolicy matches spec.md §5's "up to 3 retries".
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Second}
}

// Do calls fn, retrying per p while retryable(err) is true and the
// attempt budget remains. It sleeps RETRY_DELAY × attempt between
// tries, honoring ctx cancellation during the sleep. It returns the
// last error and the number of attempts actually made (>= 1).
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) (attemptsMade int, err error) {
	for attempt := 0; ; attempt++ {
		attemptsMade = attempt + 1
		err = fn()
		if err == nil {
			return attemptsMade, nil
		}
		if attempt >= p.Attempts || !retryable(err) {
			return attemptsMade, err
		}

		delay := p.BaseDelay * time.Duration(attempt+1)
		select {
		case <-ctx.Done():
			return attemptsMade, ctx.Err()
		case <-time.After(delay):
		}
	}
}
