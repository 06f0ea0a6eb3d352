// Package rewritelog is the ambient logging setup: an slog handler that
// injects OpenTelemetry trace context into every record, adapted from the
// teacher's pkg/observability/logger.go. Metrics and OTLP exporters are
// out of scope here — only the span/trace-context plumbing survives,
// since every subprocess and LLM/embedding call gets its own span per §5.
package rewritelog

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrOp      = "op" // the invoked operation: commit, fix, or clean
)

// TracingHandler is an slog.Handler that injects trace_id/span_id from the
// record's context, plus fixed service/operation attributes attached once
// at construction so they survive later WithGroup calls.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner, pre-attaching service and op metadata.
func NewTracingHandler(inner slog.Handler, service, op string) *TracingHandler {
	attrs := []slog.Attr{slog.String(attrService, service)}
	if op != "" {
		attrs = append(attrs, slog.String(attrOp, op))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace context attributes from the span in ctx, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a new TracingHandler with additional attributes.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a new TracingHandler with a group prefix.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}

// New builds the process logger: JSON to stdout for "json" format, or a
// human-readable text handler otherwise, both wrapped with trace injection.
func New(format, op string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if format == "json" {
		inner = slog.NewJSONHandler(logOutput(), opts)
	} else {
		inner = slog.NewTextHandler(logOutput(), opts)
	}

	return slog.New(NewTracingHandler(inner, "recut", op))
}
