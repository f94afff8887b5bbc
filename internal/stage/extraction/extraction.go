// Package extraction implements spec.md §4.5: turn each input comment
// into zero or more Argument records by asking the chat collaborator
// to extract discrete opinions.
package extraction

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/events"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/retry"
)

const schemaName = "extraction_result"

type extractedOpinions struct {
	ExtractedOpinionList []string `json:"extractedOpinionList"`
}

var jsonSchema = llmclient.GenerateSchema[extractedOpinions]()

type perComment struct {
	args  []domainmodel.Argument
	rels  []domainmodel.Relation
	usage domainmodel.TokenUsage
}

// Run extracts arguments from every non-empty comment in pc.Comments
// (or the first cfg.Limit of them), up to cfg.WorkersOrDefault()
// concurrent chat calls.
func Run(ctx context.Context, pc *pctx.Context, cfg domainmodel.Config, client llmclient.Client, sink events.Sink) (domainmodel.TokenUsage, error) {
	comments := pc.Comments
	if cfg.Limit != nil && *cfg.Limit < len(comments) {
		comments = comments[:*cfg.Limit]
	}
	total := len(comments)

	results := make([]perComment, total)
	var completed atomic.Int64
	var succeeded atomic.Int64
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkersOrDefault())

	for i, comment := range comments {
		i, comment := i, comment
		g.Go(func() error {
			defer func() {
				n := completed.Add(1)
				sink.Emit(events.Progress, events.ProgressPayload("extraction", int(n), total, ""))
			}()

			if isBlank(comment.Body) {
				return nil
			}

			var out extractedOpinions
			resp, err := callWithRetry(gctx, client, cfg.Prompts.Extraction, comment.Body, &out)
			if err != nil {
				// A per-comment failure after retries yields zero
				// arguments for that comment; the stage only fails if
				// every comment fails (spec.md §4.5).
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)

			args := make([]domainmodel.Argument, len(out.ExtractedOpinionList))
			rels := make([]domainmodel.Relation, len(out.ExtractedOpinionList))
			for j, text := range out.ExtractedOpinionList {
				argID := domainmodel.MakeArgID(comment.ID, j)
				args[j] = domainmodel.Argument{ArgID: argID, Argument: text, CommentID: comment.ID}
				rels[j] = domainmodel.Relation{ArgID: argID, CommentID: comment.ID}
			}
			results[i] = perComment{args: args, rels: rels, usage: resp.Usage()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domainmodel.TokenUsage{}, &domainmodel.PipelineError{Step: "extraction", Err: err}
	}
	if failed.Load() > 0 && succeeded.Load() == 0 {
		return domainmodel.TokenUsage{}, &domainmodel.PipelineError{
			Step: "extraction",
			Err:  fmt.Errorf("all %d comments failed extraction", failed.Load()),
		}
	}

	var usage domainmodel.TokenUsage
	pc.Arguments = nil
	pc.Relations = nil
	for _, r := range results {
		pc.Arguments = append(pc.Arguments, r.args...)
		pc.Relations = append(pc.Relations, r.rels...)
		usage = usage.Add(r.usage)
	}
	return usage, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
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
// (spec.md §4.2: "extraction: {model, prompt, limit, input}").
func Params(cfg domainmodel.Config, client llmclient.Client, inputFingerprint string) map[string]any {
	limit := any(nil)
	if cfg.Limit != nil {
		limit = *cfg.Limit
	}
	return map[string]any{
		"model":  client.Model(),
		"prompt": cfg.Prompts.Extraction,
		"limit":  limit,
		"input":  inputFingerprint,
	}
}
