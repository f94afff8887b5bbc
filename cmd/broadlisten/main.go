// Command broadlisten is a minimal composition root wiring the
// injected external collaborators (chat, embeddings, 2D reduction) to
// the pipeline orchestrator. Argument parsing semantics beyond the
// handful of flags below are out of scope (spec.md §1); this exists so
// the module is runnable, not as a full CLI surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/takahashim/broadlistening/internal/config"
	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/embedclient"
	"github.com/takahashim/broadlistening/internal/events"
	"github.com/takahashim/broadlistening/internal/input"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/logging"
	"github.com/takahashim/broadlistening/internal/pipeline"
	"github.com/takahashim/broadlistening/internal/reducer"
	"github.com/takahashim/broadlistening/internal/runid"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		inputPath  string
		outputDir  string
		configPath string
		force      bool
		only       string
		fromStep   string
		inputDir   string
	)

	cmd := &cobra.Command{
		Use:   "broadlisten",
		Short: "Run the broadlistening extraction-to-aggregation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runArgs{
				inputPath: inputPath, outputDir: outputDir, configPath: configPath,
				force: force, only: only, fromStep: fromStep, inputDir: inputDir,
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a CSV or JSON comments file (required)")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML file with pipeline+runtime settings")
	cmd.Flags().BoolVar(&force, "force", false, "rerun every stage regardless of prior state")
	cmd.Flags().StringVar(&only, "only", "", "run only the named stage")
	cmd.Flags().StringVar(&fromStep, "from-step", "", "resume from the named stage onward")
	cmd.Flags().StringVar(&inputDir, "input-dir", "", "load prior context from this directory before running")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

type runArgs struct {
	inputPath, outputDir, configPath string
	force                            bool
	only, fromStep, inputDir         string
}

func run(ctx context.Context, a runArgs) error {
	runtime := config.RuntimeFromEnv()
	pipelineCfg := domainmodel.Config{Workers: 10, RandomState: 42}
	if a.configPath != "" {
		f, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		runtime = f.Runtime
		pipelineCfg = f.Pipeline
	}

	logging.Setup(runtime, false)
	if err := runid.Init(); err != nil {
		return err
	}
	ctx = logging.WithFields(ctx, logging.Fields{OutputDir: a.outputDir, RunID: runid.New()})

	comments, err := input.Load(a.inputPath)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	llm, err := llmclient.NewOpenAI(llmclient.Config{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  pipelineCfg.Model,
	})
	if err != nil {
		return err
	}
	embed, err := embedclient.NewOpenAI(embedclient.Config{APIKey: os.Getenv("OPENAI_API_KEY")})
	if err != nil {
		return err
	}

	sink := events.Func(func(name string, payload map[string]any) {
		slog.InfoContext(ctx, name, "payload", payload)
	})

	p := pipeline.New(llm, embed, reducer.PCA{}, sink, runtime)
	result, err := p.Run(ctx, comments, pipelineCfg, a.outputDir, pipeline.RunOptions{
		Force: a.force, Only: a.only, FromStep: a.fromStep, InputDir: a.inputDir,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "pipeline completed",
		"argument_count", len(result.Arguments), "cluster_count", len(result.Clusters))
	return nil
}
