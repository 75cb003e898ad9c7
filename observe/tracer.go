package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ComputeMeta describes one digit request for telemetry purposes.
type ComputeMeta struct {
	Operation string // generate, fetch, warm
	Digits    int    // requested digit count
}

// SpanName returns the deterministic span name: pi.<operation>.
func (m ComputeMeta) SpanName() string {
	op := m.Operation
	if op == "" {
		op = "generate"
	}
	return "pi." + op
}

func (m ComputeMeta) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pi.operation", m.SpanName()[len("pi."):]),
		attribute.Int("pi.digits", m.Digits),
	}
}

// Tracer wraps OpenTelemetry tracing with digit-request span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta ComputeMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts an internal span carrying the digit count.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ComputeMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("pi.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("pi.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NoopTracer returns a tracer whose spans record nothing.
func NoopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
