package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/agentops/faults"
)

// Tracer starts and ends spans for guarded operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)

	// EndSpan ends span. A failed operation marks the span as an error and
	// records the faults classification (category, severity, error id,
	// component) as span attributes.
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer adapts an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return otelTracer{tracer: t}
}

func newNoopTracer() Tracer {
	return otelTracer{tracer: tracenoop.NewTracerProvider().Tracer("agentops")}
}

func (t otelTracer) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.spanAttrs()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t otelTracer) EndSpan(span trace.Span, err error) {
	defer span.End()
	if !span.IsRecording() {
		return
	}
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("agentops.canceled", true))
	}
	fe, ok := faults.As(err)
	if !ok {
		span.SetAttributes(attribute.String("error.category", string(faults.CategoryOf(err))))
		return
	}
	ec := fe.Context()
	attrs := []attribute.KeyValue{
		attribute.String("error.category", string(ec.Category)),
		attribute.String("error.severity", string(ec.Severity)),
		attribute.String("error.id", ec.ErrorID),
	}
	if ec.Component != "" {
		attrs = append(attrs, attribute.String("error.component", ec.Component))
	}
	span.SetAttributes(attrs...)
}
