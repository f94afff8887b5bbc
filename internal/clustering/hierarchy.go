package clustering

import (
	"fmt"
	"sort"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

// RootID is the synthetic level-0 cluster containing every argument.
const RootID = "0"

// ClusterID formats the id for level L>0, index k, per spec.md invariant 4.
func ClusterID(level, k int) string {
	return fmt.Sprintf("%d_%d", level, k)
}

// Hierarchy is the assembled parent/child tree for one run.
type Hierarchy struct {
	// LevelOrder is cluster_nums sorted ascending.
	LevelOrder []int
	// Paths[i] is the root-to-leaf cluster id sequence for argument i.
	Paths [][]string
	// Parents maps every non-root cluster id to its parent id ("0" for
	// the shallowest configured level).
	Parents map[string]string
}

// AssembleHierarchy builds the tree described in spec.md §4.7(c): one
// node per (level, k), each non-root level's clusters assigned a single
// parent by majority rule among their members, ties broken toward the
// smaller parent index.
func AssembleHierarchy(clusterNums []int, results domainmodel.ClusterResults, n int) (Hierarchy, error) {
	levels := append([]int(nil), clusterNums...)
	sort.Ints(levels)

	for _, l := range levels {
		if len(results[l]) != n {
			return Hierarchy{}, fmt.Errorf("clustering: level %d has %d labels, want %d", l, len(results[l]), n)
		}
	}

	parents := make(map[string]string)

	// Shallowest configured level's clusters all parent directly under
	// the synthetic root.
	if len(levels) > 0 {
		shallow := levels[0]
		kCount := countDistinct(results[shallow])
		for k := 0; k < kCount; k++ {
			parents[ClusterID(shallow, k)] = RootID
		}
	}

	for idx := 1; idx < len(levels); idx++ {
		parentLevel, childLevel := levels[idx-1], levels[idx]
		parentLabels, childLabels := results[parentLevel], results[childLevel]
		childK := countDistinct(childLabels)
		parentK := countDistinct(parentLabels)

		votes := make([][]int, childK)
		for c := range votes {
			votes[c] = make([]int, parentK)
		}
		for i := 0; i < n; i++ {
			votes[childLabels[i]][parentLabels[i]]++
		}

		for c := 0; c < childK; c++ {
			best, bestCount := 0, -1
			for p, count := range votes[c] {
				if count > bestCount {
					best, bestCount = p, count
				}
			}
			parents[ClusterID(childLevel, c)] = ClusterID(parentLevel, best)
		}
	}

	paths := make([][]string, n)
	for i := 0; i < n; i++ {
		path := make([]string, 0, len(levels)+1)
		path = append(path, RootID)
		for _, l := range levels {
			path = append(path, ClusterID(l, results[l][i]))
		}
		paths[i] = path
	}

	return Hierarchy{LevelOrder: levels, Paths: paths, Parents: parents}, nil
}

func countDistinct(labels []int) int {
	max := -1
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}
