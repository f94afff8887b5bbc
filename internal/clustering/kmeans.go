// Package clustering implements the flat-partitioning and
// hierarchy-assembly math described in spec.md §4.7: k-means++ seeded
// K-means over 2D points, glued into a parent/child tree across the
// configured cluster counts, plus the density metrics of §4.12.
package clustering

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

// Point is a 2D coordinate.
type Point [2]float64

func dist2(a, b Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

// MaxIterations is the default cap on Lloyd's-algorithm iterations
// (spec.md §4.7).
const MaxIterations = 100

// KMeansResult is the outcome of one flat partitioning at a given K.
type KMeansResult struct {
	Labels  []int
	Centers []Point
}

// KMeans partitions points into k clusters using k-means++
// initialization (seeded probability proportional to squared distance
// from the nearest already-chosen center), Lloyd's algorithm for
// iteration, and reseeds any cluster that goes empty onto a randomly
// chosen (seeded) input point. Same seed + same input always produce
// the same labels.
func KMeans(points []Point, k int, maxIterations int, seed int64) (KMeansResult, error) {
	n := len(points)
	if k <= 0 {
		return KMeansResult{}, &domainmodel.ClusteringError{Reason: "must be positive"}
	}
	if k > n {
		return KMeansResult{}, &domainmodel.ClusteringError{Reason: "n_clusters must be ≤ n_samples"}
	}
	if maxIterations <= 0 {
		maxIterations = MaxIterations
	}

	rng := rand.New(rand.NewSource(seed))
	centers := kmeansPlusPlusInit(points, k, rng)
	labels := make([]int, n)
	prevLabels := make([]int, n)
	for i := range prevLabels {
		prevLabels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := dist2(p, center); d < bestDist {
					best, bestDist = c, d
				}
			}
			labels[i] = best
			if labels[i] != prevLabels[i] {
				changed = true
			}
		}
		if !changed {
			break
		}
		copy(prevLabels, labels)

		sums := make([]Point, k)
		counts := make([]int, k)
		for i, p := range points {
			c := labels[i]
			sums[c][0] += p[0]
			sums[c][1] += p[1]
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				centers[c] = points[rng.Intn(n)]
				continue
			}
			centers[c] = Point{sums[c][0] / float64(counts[c]), sums[c][1] / float64(counts[c])}
		}
	}

	return KMeansResult{Labels: labels, Centers: centers}, nil
}

func kmeansPlusPlusInit(points []Point, k int, rng *rand.Rand) []Point {
	n := len(points)
	centers := make([]Point, 0, k)
	centers = append(centers, points[rng.Intn(n)])

	distSq := make([]float64, n)
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centers {
				if d := dist2(p, c); d < best {
					best = d
				}
			}
			distSq[i] = best
			total += best
		}
		if total == 0 {
			// All remaining points coincide with chosen centers; pick
			// uniformly at random to make forward progress.
			centers = append(centers, points[rng.Intn(n)])
			continue
		}
		target := rng.Float64() * total
		cum := 0.0
		chosen := n - 1
		for i, d := range distSq {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centers = append(centers, points[chosen])
	}
	return centers
}

// AutoClusterNums derives two ascending cluster counts from the number
// of comments, per spec.md §4.7 and the resolved Open Question in
// SPEC_FULL.md: ceil(sqrt(N)/2) and ceil(sqrt(N)*2), clamped to [2, N]
// and deduplicated.
func AutoClusterNums(n int) []int {
	if n <= 0 {
		return nil
	}
	clamp := func(v int) int {
		if v < 2 {
			v = 2
		}
		if v > n {
			v = n
		}
		return v
	}
	lo := clamp(int(math.Ceil(math.Sqrt(float64(n)) / 2)))
	hi := clamp(int(math.Ceil(math.Sqrt(float64(n)) * 2)))
	if lo == hi {
		return []int{lo}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return []int{lo, hi}
}

// ValidateClusterNums reproduces the K<=0 / K>N checks for every
// configured level up front, so the clustering stage can fail fast
// with a clear message before running any partitioning.
func ValidateClusterNums(nums []int, n int) error {
	for _, k := range nums {
		if k <= 0 {
			return &domainmodel.ClusteringError{Reason: "must be positive"}
		}
		if k > n {
			return &domainmodel.ClusteringError{Reason: fmt.Sprintf("n_clusters must be ≤ n_samples (k=%d, n=%d)", k, n)}
		}
	}
	return nil
}
