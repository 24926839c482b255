package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/agentops/faults"
)

// Metrics records execution metrics for guarded operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExecution records one operation with its duration and outcome.
	RecordExecution(ctx context.Context, meta OperationMeta, duration time.Duration, err error)

	// RecordRetry records a scheduled retry of an operation.
	RecordRetry(ctx context.Context, meta OperationMeta, attempt int)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	retryCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance backed by meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"agentops.op.total",
		metric.WithDescription("Total number of guarded operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"agentops.op.errors",
		metric.WithDescription("Guarded operations that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"agentops.op.retries",
		metric.WithDescription("Retries scheduled for guarded operations"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"agentops.op.duration_ms",
		metric.WithDescription("Guarded operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		retryCount:   retryCount,
		durationHist: durationHist,
	}, nil
}

func baseAttrs(meta OperationMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("component", meta.Component)}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("operation", meta.Operation))
	}
	return attrs
}

func (m *metricsImpl) RecordExecution(ctx context.Context, meta OperationMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(baseAttrs(meta)...)

	m.totalCount.Add(ctx, 1, opt)
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)

	if err != nil {
		attrs := append(baseAttrs(meta),
			attribute.String("error.category", string(faults.CategoryOf(err))),
			attribute.String("error.severity", string(faults.SeverityOf(err))),
		)
		m.errorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *metricsImpl) RecordRetry(ctx context.Context, meta OperationMeta, attempt int) {
	m.retryCount.Add(ctx, 1, metric.WithAttributes(baseAttrs(meta)...))
}

type noopMetrics struct{}

func (noopMetrics) RecordExecution(ctx context.Context, meta OperationMeta, duration time.Duration, err error) {
}

func (noopMetrics) RecordRetry(ctx context.Context, meta OperationMeta, attempt int) {}
