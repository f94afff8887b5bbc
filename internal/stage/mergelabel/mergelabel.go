// Package mergelabel implements spec.md §4.9: label every non-root,
// non-deepest cluster bottom-up, by asking the chat collaborator to
// summarize its children's labels plus a small argument sample.
package mergelabel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	clusteringmath "github.com/takahashim/broadlistening/internal/clustering"
	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/events"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/retry"
)

const schemaName = "cluster_label"

// memberSampleSize is the "small sample of member arguments" spec.md
// §4.9 asks for alongside each cluster's children.
const memberSampleSize = 5

type labelResult struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

var jsonSchema = llmclient.GenerateSchema[labelResult]()

// Run labels every level in pc.ClusterNums except the deepest, working
// from the deepest upward so each level's prompt can cite its
// children's freshly computed labels.
func Run(ctx context.Context, pc *pctx.Context, cfg domainmodel.Config, client llmclient.Client, sink events.Sink) (domainmodel.TokenUsage, error) {
	if pc.Labels == nil {
		pc.Labels = map[string]domainmodel.Cluster{}
	}
	if len(pc.ClusterNums) == 0 {
		return domainmodel.TokenUsage{}, nil
	}

	copyDeepestLabels(pc)

	var totalUsage domainmodel.TokenUsage
	for idx := len(pc.ClusterNums) - 2; idx >= 0; idx-- {
		level := pc.ClusterNums[idx]
		usage, err := runLevel(ctx, pc, cfg, client, sink, level)
		if err != nil {
			return domainmodel.TokenUsage{}, err
		}
		totalUsage = totalUsage.Add(usage)
	}
	return totalUsage, nil
}

// copyDeepestLabels copies deepest-level labels from InitialLabels
// into Labels unchanged (spec.md §4.9), preserving the structural
// fields the clustering stage already populated.
func copyDeepestLabels(pc *pctx.Context) {
	for id, l := range pc.InitialLabels {
		existing := pc.Labels[id]
		existing.Label = l.Label
		existing.Description = l.Description
		pc.Labels[id] = existing
	}
}

func runLevel(ctx context.Context, pc *pctx.Context, cfg domainmodel.Config, client llmclient.Client, sink events.Sink, level int) (domainmodel.TokenUsage, error) {
	labels := pc.ClusterResults[level]
	memberIdx := map[int][]int{}
	for i, k := range labels {
		memberIdx[k] = append(memberIdx[k], i)
	}

	children := map[string][]string{}
	for childID, c := range pc.Labels {
		if c.Parent == "" {
			continue
		}
		children[c.Parent] = append(children[c.Parent], childID)
	}

	ids := make([]int, 0, len(memberIdx))
	for k := range memberIdx {
		ids = append(ids, k)
	}
	sort.Ints(ids)
	total := len(ids)

	var mu sync.Mutex
	var usage domainmodel.TokenUsage
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkersOrDefault())

	for _, k := range ids {
		k := k
		id := clusteringmath.ClusterID(level, k)
		childIDs := append([]string(nil), children[id]...)
		sort.Strings(childIDs)
		sample := sampleArguments(pc, memberIdx[k], memberSampleSize)

		g.Go(func() error {
			prompt := buildPrompt(pc, childIDs, sample)
			var out labelResult
			resp, err := callWithRetry(gctx, client, cfg.Prompts.MergeLabelling, prompt, &out)

			mu.Lock()
			completed++
			n := completed
			entry := pc.Labels[id]
			if err == nil {
				entry.Label = out.Label
				entry.Description = out.Description
				usage = usage.Add(resp.Usage())
			} else {
				entry.Label = ""
				entry.Description = ""
			}
			pc.Labels[id] = entry
			mu.Unlock()

			sink.Emit(events.Progress, events.ProgressPayload("merge_labelling", n, total, fmt.Sprintf("level %d", level)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domainmodel.TokenUsage{}, &domainmodel.PipelineError{Step: "merge_labelling", Err: err}
	}
	return usage, nil
}

func sampleArguments(pc *pctx.Context, idx []int, n int) []string {
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pc.Arguments[idx[i]].Argument
	}
	return out
}

func buildPrompt(pc *pctx.Context, childIDs []string, sample []string) string {
	var b strings.Builder
	for _, id := range childIDs {
		c := pc.Labels[id]
		fmt.Fprintf(&b, "- %s: %s\n", c.Label, c.Description)
	}
	if len(sample) > 0 {
		b.WriteString("\nExample arguments:\n")
		for _, s := range sample {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

func callWithRetry(ctx context.Context, client llmclient.Client, systemPrompt, userPrompt string, out any) (llmclient.Response, error) {
	var resp llmclient.Response
	attempts, err := retry.Do(ctx, retry.DefaultPolicy(), func(e error) bool {
		return llmclient.IsRetryable(ctx, e)
	}, func() error {
		var callErr error
		resp, callErr = client.Chat(ctx, llmclient.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			SchemaName:   schemaName,
			Schema:       jsonSchema,
		}, out)
		return callErr
	})
	if err != nil {
		return llmclient.Response{}, &domainmodel.LlmError{Attempts: attempts, Err: err}
	}
	return resp, nil
}

// Params returns the parameter set the planner tracks for this stage
// (spec.md §4.2: "labeling stages and overview: {model, prompt}").
func Params(cfg domainmodel.Config, client llmclient.Client) map[string]any {
	return map[string]any{"model": client.Model(), "prompt": cfg.Prompts.MergeLabelling}
}
