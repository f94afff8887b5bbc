// Package reducer is the thin interface the core depends on for the
// nonlinear dimensionality-reduction collaborator named in spec.md
// §6(c) (UMAP semantics in production). The core only ever calls
// Reduce2D; it never knows which algorithm produced the coordinates.
package reducer

import "context"

// Reducer projects a matrix of embedding vectors down to 2D points, one
// per input row, in input order.
type Reducer interface {
	Reduce2D(ctx context.Context, vectors [][]float64, seed int64) ([][2]float64, error)
}
