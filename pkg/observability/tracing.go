package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the instrumentation scope used when none is configured.
const DefaultTracerName = "github.com/aretw0/shellbridge"

// Tracer starts spans for served connections.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer resolves a tracer from the global OpenTelemetry provider.
// Without a configured provider the spans are no-ops.
func NewTracer(name string) *Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return &Tracer{tracer: otel.Tracer(name)}
}

// NewTracerFromProvider resolves a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider, name string) *Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return &Tracer{tracer: tp.Tracer(name)}
}

// StartConnection opens a server span for one inbound connection.
func (t *Tracer) StartConnection(ctx context.Context, connID, remote string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "shellbridge.connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("shellbridge.conn_id", connID),
			attribute.String("net.peer.addr", remote),
		),
	)
}

// EndSpan records err (if any) and ends the span.
func EndSpan(span trace.Span, command string, err error) {
	if command != "" {
		span.SetAttributes(attribute.String("shellbridge.command", command))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
