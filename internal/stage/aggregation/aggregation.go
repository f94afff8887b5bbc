// Package aggregation implements spec.md §4.11: a pure function over
// the accumulated Context that assembles the final result artifact,
// with no I/O of its own (the caller persists it).
package aggregation

import (
	"sort"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/pctx"
)

const rootLabel = "全体"

// Run builds pc.Result from pc.Comments, pc.Arguments, pc.Labels, and
// pc.Overview.
func Run(pc *pctx.Context, cfg domainmodel.Config) error {
	commentByID := make(map[string]domainmodel.Comment, len(pc.Comments))
	for _, c := range pc.Comments {
		commentByID[c.ID] = c
	}

	usedComments := make(map[string]bool)
	resultArgs := make([]domainmodel.ResultArgument, len(pc.Arguments))
	for i, a := range pc.Arguments {
		usedComments[a.CommentID] = true
		ra := domainmodel.ResultArgument{
			ArgID:      a.ArgID,
			Argument:   a.Argument,
			CommentID:  domainmodel.ResolveCommentID(a.ArgID, a.CommentID),
			X:          a.X,
			Y:          a.Y,
			P:          0,
			ClusterIDs: a.ClusterIDs,
		}
		if c, ok := commentByID[a.CommentID]; ok {
			if len(c.Attributes) > 0 {
				ra.Attributes = c.Attributes
			}
			if c.SourceURL != "" {
				ra.URL = c.SourceURL
			}
		}
		resultArgs[i] = ra
	}

	clusters := []domainmodel.Cluster{
		{Level: 0, ID: "0", Label: rootLabel, Takeaway: "", Value: len(pc.Arguments), Parent: ""},
	}
	ids := make([]string, 0, len(pc.Labels))
	for id := range pc.Labels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := pc.Labels[ids[i]], pc.Labels[ids[j]]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		c := pc.Labels[id]
		if c.Parent == "" {
			c.Parent = "0"
		}
		clusters = append(clusters, c)
	}

	comments := make(map[string]domainmodel.ResultComment, len(usedComments))
	for cid := range usedComments {
		if c, ok := commentByID[cid]; ok {
			comments[c.ID] = domainmodel.ResultComment{Comment: c.Body}
		}
	}

	pc.Result = &domainmodel.Result{
		Arguments:    resultArgs,
		Clusters:     clusters,
		Comments:     comments,
		PropertyMap:  map[string]any{},
		Translations: map[string]any{},
		Overview:     pc.Overview,
		Config:       cfg.Export(),
		CommentNum:   len(pc.Comments),
	}
	return nil
}

// Params returns the parameter set the planner tracks for this stage
// (spec.md §4.2: "aggregation: {}").
func Params() map[string]any {
	return map[string]any{}
}
