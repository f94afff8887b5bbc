package clustering

import (
	"math"
	"sort"
)

// ClusterDensity is one cluster's density metric and its rank among the
// clusters it is compared against (siblings at the same level, per
// spec.md §4.12).
type ClusterDensity struct {
	Density               float64
	Rank                  int
	RankPercentile        float64
}

// Densities computes, for one flat partition, each cluster's density
// (inverse mean Euclidean distance of its members from its centroid,
// spec.md §4.12) and its dense rank (1 = densest) and rank percentile
// among the k clusters of that partition.
//
// A cluster with a single member, or whose members all coincide with
// its centroid, has mean distance 0 and so density saturates at 1e10
// (1 / (0 + 1e-10)) rather than overflowing to +Inf.
func Densities(points []Point, labels []int, centers []Point) []ClusterDensity {
	k := len(centers)
	sums := make([]float64, k)
	counts := make([]int, k)
	for i, p := range points {
		c := labels[i]
		sums[c] += math.Sqrt(dist2(p, centers[c]))
		counts[c]++
	}

	densities := make([]float64, k)
	for c := 0; c < k; c++ {
		mean := 0.0
		if counts[c] > 0 {
			mean = sums[c] / float64(counts[c])
		}
		densities[c] = 1 / (mean + 1e-10)
	}

	order := make([]int, k)
	for c := range order {
		order[c] = c
	}
	sort.Slice(order, func(i, j int) bool { return densities[order[i]] > densities[order[j]] })

	out := make([]ClusterDensity, k)
	rank := make([]int, k)
	next := 0
	for pos, c := range order {
		// Dense ranking: ties share the same rank, next rank skips
		// nothing (i.e. 1,2,2,3 not 1,2,2,4).
		if pos > 0 && densities[c] == densities[order[pos-1]] {
			rank[c] = rank[order[pos-1]]
		} else {
			next++
			rank[c] = next
		}
	}

	total := k
	for c := 0; c < k; c++ {
		percentile := 0.0
		if total > 1 {
			percentile = float64(rank[c]-1) / float64(total-1)
		}
		out[c] = ClusterDensity{Density: densities[c], Rank: rank[c], RankPercentile: percentile}
	}
	return out
}
