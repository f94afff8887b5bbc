// Package logging sets up slog the way the teacher's common/logger
// package does: a handler chain that always enriches records with
// whatever run/step fields are stashed in the context, with an optional
// OTel log bridge in production.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/takahashim/broadlistening/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// Setup installs the process-wide slog handler. Development mode writes
// human text to stdout and a dated log file; production writes JSON, or
// routes through the OTel log bridge when otelEnabled is true.
func Setup(rt config.Runtime, otelEnabled bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if rt.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch {
	case rt.IsProduction() && otelEnabled:
		handler = NewFieldHandler(otelslog.NewHandler("broadlistening", otelslog.WithLoggerProvider(global.GetLoggerProvider())))
	case rt.IsProduction():
		handler = NewFieldHandler(slog.NewJSONHandler(os.Stdout, opts))
	default:
		handler = NewFieldHandler(slog.NewTextHandler(devWriter(), opts))
	}

	slog.SetDefault(slog.New(handler))
}

func devWriter() io.Writer {
	dir := "logs"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stdout
	}
	name := filepath.Join(dir, "broadlistening-"+time.Now().Format("2006-01-02")+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, f)
}

// contextKey namespaces values stashed on context by this package.
type contextKey string

const fieldsKey contextKey = "broadlistening_log_fields"

// Fields are the structured attributes every log line in a run should
// carry: which output directory, which stage, which run attempt.
type Fields struct {
	OutputDir string
	Step      string
	RunID     string
}

// WithFields merges fields into ctx, newer non-empty values winning.
func WithFields(ctx context.Context, f Fields) context.Context {
	existing := FieldsFromContext(ctx)
	if f.OutputDir != "" {
		existing.OutputDir = f.OutputDir
	}
	if f.Step != "" {
		existing.Step = f.Step
	}
	if f.RunID != "" {
		existing.RunID = f.RunID
	}
	return context.WithValue(ctx, fieldsKey, existing)
}

// FieldsFromContext retrieves the fields stashed by WithFields, or the
// zero value if none were set.
func FieldsFromContext(ctx context.Context) Fields {
	if f, ok := ctx.Value(fieldsKey).(Fields); ok {
		return f
	}
	return Fields{}
}

// FieldHandler enriches every record with the OTel trace/span ids (when
// a span is active) and the structured Fields carried on the context.
type FieldHandler struct {
	slog.Handler
}

func NewFieldHandler(h slog.Handler) *FieldHandler {
	return &FieldHandler{Handler: h}
}

func (h *FieldHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()), slog.String("span_id", sc.SpanID().String()))
	}

	f := FieldsFromContext(ctx)
	if f.OutputDir != "" {
		r.AddAttrs(slog.String("output_dir", f.OutputDir))
	}
	if f.Step != "" {
		r.AddAttrs(slog.String("step", f.Step))
	}
	if f.RunID != "" {
		r.AddAttrs(slog.String("run_id", f.RunID))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *FieldHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FieldHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *FieldHandler) WithGroup(name string) slog.Handler {
	return &FieldHandler{Handler: h.Handler.WithGroup(name)}
}

// Truncate truncates s to maxLen runes, appending "..." if it was cut.
// Lifted from the teacher's logger.Truncate, useful for logging
// potentially long prompt strings.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
