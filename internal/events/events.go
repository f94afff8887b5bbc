// Package events defines the five observability event names spec.md
// §6 fixes as the pipeline's external contract, and the pluggable sink
// that receives them. When no sink is installed, events are discarded.
package events

import "math"

// Names, exact per spec.md §6.
const (
	Pipeline   = "pipeline.broadlistening"
	StepStart  = "step.start.broadlistening"
	Step       = "step.broadlistening"
	StepSkip   = "step.skip.broadlistening"
	Progress   = "progress.broadlistening"
)

// Sink receives observability events. Implementations must not block;
// notifications are synchronous and must never stall shutdown
// (spec.md §5).
type Sink interface {
	Emit(name string, payload map[string]any)
}

// Nop discards every event. The zero value is ready to use.
type Nop struct{}

func (Nop) Emit(string, map[string]any) {}

// Func adapts a plain function to Sink.
type Func func(name string, payload map[string]any)

func (f Func) Emit(name string, payload map[string]any) { f(name, payload) }

// ProgressPayload builds the progress.broadlistening payload, with
// percentage rounded to one decimal place (spec.md §4.5).
func ProgressPayload(step string, current, total int, message string) map[string]any {
	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(current)/float64(total)*1000) / 10
	}
	payload := map[string]any{"step": step, "current": current, "total": total, "percentage": pct}
	if message != "" {
		payload["message"] = message
	}
	return payload
}
