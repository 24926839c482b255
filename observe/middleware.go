package observe

import (
	"context"
	"time"
)

// Operation is the signature Middleware wraps. It matches the operations
// accepted by the resilience package.
type Operation func(ctx context.Context) error

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns an Operation safe for concurrent use.
//   - Context: the span context is propagated to the wrapped operation.
//   - Errors: errors from the wrapped operation are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  OrNop(logger),
	}
}

// Wrap instruments op under meta.
func (m *Middleware) Wrap(meta OperationMeta, op Operation) Operation {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := op(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordExecution(ctx, meta, duration, err)

		logger := m.logger.WithOperation(meta)
		fields := []Field{F("duration_ms", float64(duration.Microseconds())/1000)}
		if err != nil {
			fields = append(fields, Err(err))
			logger.Warn(ctx, "operation failed", fields...)
		} else {
			logger.Debug(ctx, "operation completed", fields...)
		}

		return err
	}
}

// RecordRetry forwards a retry event to the metrics backend.
func (m *Middleware) RecordRetry(ctx context.Context, meta OperationMeta, attempt int) {
	m.metrics.RecordRetry(ctx, meta, attempt)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
