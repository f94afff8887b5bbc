package reducer

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA is a deterministic stand-in for the real UMAP-based reducer spec.md
// §1 scopes out of the core ("a thin wrapper around a third-party
// nonlinear dimensionality-reduction library"). It projects onto the
// top two principal components via gonum's SVD, which is enough to
// drive the sample cmd/broadlisten entrypoint when no production reducer
// is wired in (the tests use Stub instead). It is NOT a UMAP
// replacement: it is linear, and is named accordingly rather than
// pretending otherwise.
type PCA struct{}

var _ Reducer = PCA{}

func (PCA) Reduce2D(_ context.Context, vectors [][]float64, _ int64) ([][2]float64, error) {
	n := len(vectors)
	if n == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("reducer: embedding dimension is zero")
	}

	raw := make([]float64, 0, n*dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("reducer: inconsistent embedding dimensions (%d vs %d)", len(v), dim)
		}
		raw = append(raw, v...)
	}
	data := mat.NewDense(n, dim, raw)

	if n == 1 {
		return [][2]float64{{0, 0}}, nil
	}

	var pc stat.PC
	ok := pc.PrincipalComponents(data, nil)
	if !ok {
		return nil, fmt.Errorf("reducer: PCA decomposition failed")
	}

	k := 2
	if dim < 2 {
		k = dim
	}
	var proj mat.Dense
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	proj.Mul(data, vecs.Slice(0, dim, 0, k))

	out := make([][2]float64, n)
	for i := 0; i < n; i++ {
		x := proj.At(i, 0)
		y := 0.0
		if k > 1 {
			y = proj.At(i, 1)
		}
		out[i] = [2]float64{x, y}
	}
	return out, nil
}
