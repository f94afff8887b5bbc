package reducer

import "context"

// Stub returns the same caller-scripted 2D points on every call to
// Reduce2D, one point per input vector (zero-padded or truncated when the
// counts differ), ignoring the vectors' values — used by pipeline/stage
// tests that need fixed coordinates (spec.md scenario E1).
type Stub struct {
	Points [][2]float64
	Err    error
}

var _ Reducer = (*Stub)(nil)

func (s *Stub) Reduce2D(_ context.Context, vectors [][]float64, _ int64) ([][2]float64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Points) != len(vectors) {
		out := make([][2]float64, len(vectors))
		copy(out, s.Points)
		return out, nil
	}
	return s.Points, nil
}
