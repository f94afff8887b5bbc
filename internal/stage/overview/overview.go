// Package overview implements spec.md §4.10: summarize the level-1
// clusters into a single overview paragraph.
package overview

import (
	"context"
	"fmt"
	"sort"
	"strings"

	clusteringmath "github.com/takahashim/broadlistening/internal/clustering"
	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/retry"
)

const schemaName = "overview_result"

type overviewResult struct {
	Summary string `json:"summary"`
}

var jsonSchema = llmclient.GenerateSchema[overviewResult]()

// Run summarizes the shallowest configured level's labeled clusters.
// If none are labeled, context.Overview stays nil and the stage
// succeeds (spec.md §4.10).
func Run(ctx context.Context, pc *pctx.Context, cfg domainmodel.Config, client llmclient.Client) (domainmodel.TokenUsage, error) {
	if len(pc.ClusterNums) == 0 {
		return domainmodel.TokenUsage{}, nil
	}
	level1 := pc.ClusterNums[0]
	labels := pc.ClusterResults[level1]

	ids := map[int]bool{}
	for _, k := range labels {
		ids[k] = true
	}
	sorted := make([]int, 0, len(ids))
	for k := range ids {
		sorted = append(sorted, k)
	}
	sort.Ints(sorted)

	var b strings.Builder
	nonEmpty := false
	for _, k := range sorted {
		c := pc.Labels[clusteringmath.ClusterID(level1, k)]
		if c.Label == "" && c.Description == "" {
			continue
		}
		nonEmpty = true
		fmt.Fprintf(&b, "- %s: %s\n", c.Label, c.Description)
	}
	if !nonEmpty {
		pc.Overview = nil
		return domainmodel.TokenUsage{}, nil
	}

	var out overviewResult
	resp, err := callWithRetry(ctx, client, cfg.Prompts.Overview, b.String(), &out)
	if err != nil {
		return domainmodel.TokenUsage{}, err
	}
	pc.Overview = &out.Summary
	return resp.Usage(), nil
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
	return map[string]any{"model": client.Model(), "prompt": cfg.Prompts.Overview}
}
