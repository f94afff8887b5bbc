// Package pipeline implements the orchestrator described in spec.md
// §4.1: it owns the lock, builds the execution plan, runs each stage
// in order, and persists Context incrementally so a run can resume
// from any prefix of completed stages.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/takahashim/broadlistening/internal/config"
	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/embedclient"
	"github.com/takahashim/broadlistening/internal/events"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/planner"
	"github.com/takahashim/broadlistening/internal/reducer"
	"github.com/takahashim/broadlistening/internal/status"
	"github.com/takahashim/broadlistening/internal/stage/aggregation"
	stageclustering "github.com/takahashim/broadlistening/internal/stage/clustering"
	"github.com/takahashim/broadlistening/internal/stage/embedding"
	"github.com/takahashim/broadlistening/internal/stage/extraction"
	"github.com/takahashim/broadlistening/internal/stage/initiallabel"
	"github.com/takahashim/broadlistening/internal/stage/mergelabel"
	"github.com/takahashim/broadlistening/internal/stage/overview"
)

// Pipeline wires the three injected external collaborators (chat,
// embeddings, 2D reduction) and an observability sink to the stage
// implementations.
type Pipeline struct {
	LLM     llmclient.Client
	Embed   embedclient.Client
	Reducer reducer.Reducer
	Sink    events.Sink
	Runtime config.Runtime
}

// New builds a Pipeline. sink may be nil (events are then discarded).
func New(llm llmclient.Client, embed embedclient.Client, reduce reducer.Reducer, sink events.Sink, runtime config.Runtime) *Pipeline {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Pipeline{LLM: llm, Embed: embed, Reducer: reduce, Sink: sink, Runtime: runtime}
}

// RunOptions mirrors the optional arguments of spec.md §4.1's
// run(comments, output_dir, force?, only?, from_step?, input_dir?).
type RunOptions struct {
	Force    bool
	Only     string
	FromStep string
	InputDir string
}

// Run executes the pipeline contract of spec.md §4.1.
func (p *Pipeline) Run(ctx context.Context, comments []domainmodel.Comment, cfg domainmodel.Config, outputDir string, opts RunOptions) (*domainmodel.Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	st, err := status.Load(outputDir)
	if err != nil {
		return nil, err
	}
	if st.Locked() {
		lockUntil := ""
		if st.LockUntil != nil {
			lockUntil = st.LockUntil.Format(time.RFC3339)
		}
		return nil, &domainmodel.LockedError{StatusPath: st.Path(), LockUntil: lockUntil}
	}

	pc := pctx.New(outputDir)
	if opts.InputDir != "" {
		if err := pc.LoadFromDir(opts.InputDir); err != nil {
			return nil, err
		}
		if err := materializePrefix(pc, outputDir, opts.FromStep); err != nil {
			return nil, err
		}
	} else if err := pc.LoadFromDir(outputDir); err != nil {
		return nil, err
	}
	pc.Comments = comments

	cfg.ClusterNums = stageclustering.ResolveClusterNums(cfg, len(comments))

	stepInputs := p.buildStepInputs(cfg, outputDir, fingerprintComments(comments))
	plan := planner.CreatePlan(stepInputs, planner.Options{Force: opts.Force, Only: opts.Only, FromStep: opts.FromStep}, st)

	lockDuration := p.Runtime.LockDuration
	if err := st.StartPipeline(plan, lockDuration); err != nil {
		return nil, err
	}
	p.Sink.Emit(events.Pipeline, map[string]any{"comment_count": len(comments)})

	for i, ps := range plan {
		if !ps.Run {
			p.Sink.Emit(events.StepSkip, map[string]any{"step": ps.Step, "reason": ps.Reason})
			continue
		}

		params := stepInputs[i].Params
		p.Sink.Emit(events.StepStart, map[string]any{
			"step": ps.Step, "step_index": i, "step_total": len(plan), "params": params,
		})
		if err := st.StartStep(ps.Step, lockDuration); err != nil {
			return nil, err
		}

		start := time.Now()
		usage, runErr := p.runStage(ctx, ps.Step, pc, cfg)
		duration := time.Since(start)

		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				runErr = errors.New("cancelled")
			}
			_ = st.ErrorPipeline(runErr)
			p.Sink.Emit(events.Step, map[string]any{
				"step": ps.Step, "step_index": i, "step_total": len(plan), "error": runErr.Error(),
			})
			return nil, runErr
		}

		if err := pc.SaveStep(ps.Step, outputDir); err != nil {
			_ = st.ErrorPipeline(err)
			return nil, err
		}
		if err := st.CompleteStep(ps.Step, params, duration, usage); err != nil {
			return nil, err
		}
		p.Sink.Emit(events.Step, map[string]any{
			"step": ps.Step, "step_index": i, "step_total": len(plan),
			"params": params, "files": pctx.OutputFiles(ps.Step),
		})
	}

	if err := st.CompletePipeline(); err != nil {
		return nil, err
	}
	return pc.Result, nil
}

func (p *Pipeline) buildStepInputs(cfg domainmodel.Config, outputDir, inputFingerprint string) []planner.StepInput {
	return []planner.StepInput{
		{
			Name:             pctx.StepExtraction,
			Params:           extraction.Params(cfg, p.LLM, inputFingerprint),
			OutputFilesExist: filesExist(outputDir, pctx.StepExtraction),
		},
		{
			Name:             pctx.StepEmbedding,
			DependsOn:        pctx.StepExtraction,
			Params:           embedding.Params(cfg),
			OutputFilesExist: filesExist(outputDir, pctx.StepEmbedding),
		},
		{
			Name:             pctx.StepClustering,
			DependsOn:        pctx.StepEmbedding,
			Params:           stageclustering.Params(cfg.ClusterNums),
			OutputFilesExist: filesExist(outputDir, pctx.StepClustering),
		},
		{
			Name:             pctx.StepInitialLabelling,
			DependsOn:        pctx.StepClustering,
			Params:           initiallabel.Params(cfg, p.LLM),
			OutputFilesExist: filesExist(outputDir, pctx.StepInitialLabelling),
		},
		{
			Name:             pctx.StepMergeLabelling,
			DependsOn:        pctx.StepInitialLabelling,
			Params:           mergelabel.Params(cfg, p.LLM),
			OutputFilesExist: filesExist(outputDir, pctx.StepMergeLabelling),
		},
		{
			Name:             pctx.StepOverview,
			DependsOn:        pctx.StepMergeLabelling,
			Params:           overview.Params(cfg, p.LLM),
			OutputFilesExist: filesExist(outputDir, pctx.StepOverview),
		},
		{
			Name:             pctx.StepAggregation,
			DependsOn:        pctx.StepOverview,
			Params:           aggregation.Params(),
			OutputFilesExist: filesExist(outputDir, pctx.StepAggregation),
		},
	}
}

func (p *Pipeline) runStage(ctx context.Context, step string, pc *pctx.Context, cfg domainmodel.Config) (domainmodel.TokenUsage, error) {
	switch step {
	case pctx.StepExtraction:
		return extraction.Run(ctx, pc, cfg, p.LLM, p.Sink)
	case pctx.StepEmbedding:
		return embedding.Run(ctx, pc, cfg, p.Embed)
	case pctx.StepClustering:
		err := stageclustering.Run(ctx, pc, cfg.ClusterNums, cfg.RandomState, p.Reducer)
		return domainmodel.TokenUsage{}, err
	case pctx.StepInitialLabelling:
		return initiallabel.Run(ctx, pc, cfg, p.LLM, p.Sink)
	case pctx.StepMergeLabelling:
		return mergelabel.Run(ctx, pc, cfg, p.LLM, p.Sink)
	case pctx.StepOverview:
		return overview.Run(ctx, pc, cfg, p.LLM)
	case pctx.StepAggregation:
		err := aggregation.Run(pc, cfg)
		return domainmodel.TokenUsage{}, err
	default:
		return domainmodel.TokenUsage{}, fmt.Errorf("pipeline: unknown step %q", step)
	}
}

// materializePrefix copies, into outputDir, the on-disk outputs of
// every stage strictly before fromStep (spec.md §4.1 contract 2). With
// no fromStep (a full run), there is nothing "before" the first stage,
// so nothing is copied — the run starts from the comments the caller
// passed in.
func materializePrefix(pc *pctx.Context, outputDir, fromStep string) error {
	cutoff := 0
	for i, s := range pctx.Steps {
		if s == fromStep {
			cutoff = i
			break
		}
	}
	for i := 0; i < cutoff; i++ {
		if err := pc.SaveStep(pctx.Steps[i], outputDir); err != nil {
			return err
		}
	}
	return nil
}

func filesExist(dir, step string) bool {
	for _, f := range pctx.OutputFiles(step) {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return false
		}
	}
	return true
}

func fingerprintComments(comments []domainmodel.Comment) string {
	h := sha256.New()
	for _, c := range comments {
		h.Write([]byte(c.ID))
		h.Write([]byte{0})
		h.Write([]byte(c.Body))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
