// Package clustering is the stage wrapper around spec.md §4.7: reduce
// embeddings to 2D, flat-partition at each configured K, assemble the
// parent/child hierarchy, and seed context.Labels with every non-root
// cluster's structural fields (value, parent, density) so later
// labelling stages only need to fill in text.
package clustering

import (
	"context"
	"fmt"

	clusteringmath "github.com/takahashim/broadlistening/internal/clustering"
	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/reducer"
)

// ResolveClusterNums applies the auto_cluster_nums rule of spec.md
// §4.7: if enabled and ClusterNums is empty, derive it from the
// comment count.
func ResolveClusterNums(cfg domainmodel.Config, argumentCount int) []int {
	if len(cfg.ClusterNums) > 0 || !cfg.AutoClusterNums {
		return cfg.ClusterNums
	}
	return clusteringmath.AutoClusterNums(argumentCount)
}

// Run performs all three substeps of spec.md §4.7 against pc.Arguments'
// embeddings, using levels (already resolved via ResolveClusterNums).
func Run(ctx context.Context, pc *pctx.Context, levels []int, seed int64, reduce reducer.Reducer) error {
	n := len(pc.Arguments)
	if err := clusteringmath.ValidateClusterNums(levels, n); err != nil {
		return err
	}

	vectors := make([][]float64, n)
	for i, a := range pc.Arguments {
		vectors[i] = a.Embedding
	}

	coords, err := reduce.Reduce2D(ctx, vectors, seed)
	if err != nil {
		return &domainmodel.PipelineError{Step: "clustering", Err: fmt.Errorf("reduce_2d: %w", err)}
	}
	if len(coords) != n {
		return &domainmodel.PipelineError{Step: "clustering", Err: fmt.Errorf("reduce_2d returned %d points, want %d", len(coords), n)}
	}

	points := make([]clusteringmath.Point, n)
	for i, c := range coords {
		points[i] = clusteringmath.Point(c)
		pc.Arguments[i].X = c[0]
		pc.Arguments[i].Y = c[1]
	}

	results := domainmodel.ClusterResults{}
	centers := map[int][]clusteringmath.Point{}
	for _, k := range levels {
		r, err := clusteringmath.KMeans(points, k, clusteringmath.MaxIterations, seed)
		if err != nil {
			return err
		}
		results[k] = r.Labels
		centers[k] = r.Centers
	}

	h, err := clusteringmath.AssembleHierarchy(levels, results, n)
	if err != nil {
		return err
	}
	for i, path := range h.Paths {
		pc.Arguments[i].ClusterIDs = path
	}

	pc.ClusterNums = h.LevelOrder
	pc.ClusterResults = results
	seedLabels(pc, h, results, centers, points)
	return nil
}

// seedLabels populates pc.Labels with every non-root cluster's
// structural fields, leaving Label/Description blank for the labelling
// stages to fill in.
func seedLabels(pc *pctx.Context, h clusteringmath.Hierarchy, results domainmodel.ClusterResults, centers map[int][]clusteringmath.Point, points []clusteringmath.Point) {
	if pc.Labels == nil {
		pc.Labels = map[string]domainmodel.Cluster{}
	}
	for _, level := range h.LevelOrder {
		labels := results[level]
		values := make(map[int]int)
		for _, k := range labels {
			values[k]++
		}
		densities := clusteringmath.Densities(points, labels, centers[level])
		for k, v := range values {
			id := clusteringmath.ClusterID(level, k)
			d := densities[k]
			percentile := d.RankPercentile
			pc.Labels[id] = domainmodel.Cluster{
				Level:                 level,
				ID:                    id,
				Value:                 v,
				Parent:                h.Parents[id],
				Density:               d.Density,
				DensityRank:           d.Rank,
				DensityRankPercentile: &percentile,
			}
		}
	}
}

// Params returns the parameter set the planner tracks for this stage
// (spec.md §4.2: "clustering: {cluster_nums}").
func Params(levels []int) map[string]any {
	return map[string]any{"cluster_nums": levels}
}
