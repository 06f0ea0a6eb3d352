package rewritelog

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "recut"

func logOutput() io.Writer {
	return os.Stdout
}

// InitTracer installs a process-wide TracerProvider with no exporter
// attached (spans are created and sampled but never shipped anywhere) —
// the span/trace-context plumbing the engine's subprocess and LLM/embed
// call sites rely on, without the teacher's OTLP collector dependency.
func InitTracer() (trace.Tracer, func(context.Context) error) {
	res := resource.NewSchemaless(semconv.ServiceNameKey.String(tracerName))

	provider := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(provider)

	return provider.Tracer(tracerName), provider.Shutdown
}
