// Package initiallabel implements spec.md §4.8: label every
// deepest-level cluster by asking the chat collaborator to summarize
// its member arguments.
package initiallabel

import (
	"context"
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

// maxMemberChars bounds how much member-argument text is packed into
// one prompt; earliest-in-index-order members are kept first so
// truncation is deterministic (spec.md §4.8).
const maxMemberChars = 6000

type labelResult struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

var jsonSchema = llmclient.GenerateSchema[labelResult]()

// Run labels every cluster at the deepest configured level.
func Run(ctx context.Context, pc *pctx.Context, cfg domainmodel.Config, client llmclient.Client, sink events.Sink) (domainmodel.TokenUsage, error) {
	if len(pc.ClusterNums) == 0 {
		return domainmodel.TokenUsage{}, nil
	}
	deepest := pc.ClusterNums[len(pc.ClusterNums)-1]
	labels := pc.ClusterResults[deepest]

	members := map[int][]string{}
	for i, k := range labels {
		members[k] = append(members[k], pc.Arguments[i].Argument)
	}

	ids := make([]int, 0, len(members))
	for k := range members {
		ids = append(ids, k)
	}
	sort.Ints(ids)
	total := len(ids)

	if pc.InitialLabels == nil {
		pc.InitialLabels = map[string]domainmodel.ClusterLabel{}
	}
	var mu sync.Mutex
	var usage domainmodel.TokenUsage
	var completed int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkersOrDefault())

	for _, k := range ids {
		k := k
		clusterID := clusteringmath.ClusterID(deepest, k)
		prompt := truncateJoin(members[k], maxMemberChars)
		g.Go(func() error {
			var out labelResult
			resp, err := callWithRetry(gctx, client, cfg.Prompts.InitialLabelling, prompt, &out)
			mu.Lock()
			completed++
			n := completed
			if err == nil {
				pc.InitialLabels[clusterID] = domainmodel.ClusterLabel{
					ClusterID: clusterID, Level: deepest, Label: out.Label, Description: out.Description,
				}
				usage = usage.Add(resp.Usage())
			} else {
				// Final failure: label with empty strings so
				// aggregation still succeeds (spec.md §4.8).
				pc.InitialLabels[clusterID] = domainmodel.ClusterLabel{ClusterID: clusterID, Level: deepest}
			}
			mu.Unlock()
			sink.Emit(events.Progress, events.ProgressPayload("initial_labelling", n, total, ""))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domainmodel.TokenUsage{}, &domainmodel.PipelineError{Step: "initial_labelling", Err: err}
	}
	return usage, nil
}

func truncateJoin(texts []string, limit int) string {
	var b strings.Builder
	for _, t := range texts {
		if b.Len()+len(t)+1 > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t)
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
	return map[string]any{"model": client.Model(), "prompt": cfg.Prompts.InitialLabelling}
}
