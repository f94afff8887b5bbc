// Package planner implements the incremental-execution decision logic
// of spec.md §4.2: given the previous run's history, decide which
// stages actually need to execute this time.
package planner

import (
	"reflect"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/status"
)

// History is the subset of status.Status the planner needs: whether a
// step has ever completed, and its most recently recorded (already
// hash-normalized) params.
type History interface {
	LastCompletedJob(step string) (domainmodel.CompletedJob, bool)
}

// StepInput is one stage's planning inputs.
type StepInput struct {
	Name             string
	DependsOn        string // immediate predecessor step name, "" for the first stage
	Params           map[string]any
	OutputFilesExist bool
}

// Options mirrors the Pipeline.run arguments that affect planning.
type Options struct {
	Force    bool
	Only     string
	FromStep string
}

// CreatePlan applies the eight-rule decision order of spec.md §4.2, in
// stage order, so the dependency-cascade rule (6) can see earlier
// decisions already made within this same call.
func CreatePlan(steps []StepInput, opts Options, history History) []domainmodel.PlanStep {
	plan := make([]domainmodel.PlanStep, 0, len(steps))
	decided := make(map[string]bool, len(steps))
	reachedFromStep := opts.FromStep == ""

	for _, step := range steps {
		run, reason := decide(step, opts, history, decided, &reachedFromStep)
		decided[step.Name] = run
		plan = append(plan, domainmodel.PlanStep{Step: step.Name, Run: run, Reason: reason})
	}
	return plan
}

func decide(step StepInput, opts Options, history History, decided map[string]bool, reachedFromStep *bool) (bool, string) {
	if opts.Force {
		return true, "forced"
	}
	if opts.Only != "" {
		if step.Name == opts.Only {
			return true, "only"
		}
		return false, "not selected by only"
	}
	if opts.FromStep != "" {
		if !*reachedFromStep {
			if step.Name == opts.FromStep {
				*reachedFromStep = true
				return true, "from step"
			}
			return false, "before from"
		}
		return true, "after from"
	}

	job, ok := history.LastCompletedJob(step.Name)
	if !ok {
		return true, "no prior run"
	}
	if !step.OutputFilesExist {
		return true, "output missing"
	}
	if step.DependsOn != "" && decided[step.DependsOn] {
		return true, "dependency re-ran"
	}
	if paramsChanged(job.Params, step.Params) {
		return true, "parameters changed"
	}
	return false, "nothing changed"
}

// paramsChanged compares the previous run's normalized params against
// this run's, normalizing the candidate the same way (spec.md §4.2).
func paramsChanged(previous, candidate map[string]any) bool {
	normalized := status.NormalizeParams(candidate)
	if len(previous) != len(normalized) {
		return true
	}
	for k, v := range normalized {
		pv, ok := previous[k]
		if !ok {
			return true
		}
		if !reflect.DeepEqual(normalizeValue(pv), normalizeValue(v)) {
			return true
		}
	}
	return false
}

func normalizeValue(v any) any {
	// JSON round-tripping through status.json turns e.g. int into
	// float64 and []int into []any of float64; coerce integers and
	// integer slices the same way to avoid false positives from that
	// representational shift.
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = float64(n)
		}
		return out
	default:
		return v
	}
}
