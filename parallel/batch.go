package parallel

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/agentops/observe"
)

// BatchConfig configures a BatchProcessor.
type BatchConfig struct {
	// BatchSize is the number of items processed sequentially per batch.
	// Default: 10
	BatchSize int

	// MaxConcurrentBatches bounds how many batches run at once.
	// Default: 3
	MaxConcurrentBatches int

	// Logger receives per-item failures. Default: no-op.
	Logger observe.Logger
}

// Result is the outcome of processing one item. Err holds the processing
// error even when an error handler supplied a fallback Value.
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// ProcessFunc processes one item.
type ProcessFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ErrorHandlerFunc returns a fallback value for an item whose processing
// failed with err.
type ErrorHandlerFunc[T, R any] func(ctx context.Context, item T, err error) (R, error)

// BatchOption configures a BatchProcessor.
type BatchOption[T, R any] func(*BatchProcessor[T, R])

// WithErrorHandler installs a fallback for failed items.
func WithErrorHandler[T, R any](fn ErrorHandlerFunc[T, R]) BatchOption[T, R] {
	return func(p *BatchProcessor[T, R]) {
		p.onError = fn
	}
}

// BatchProcessor processes items in batches with bounded concurrency.
type BatchProcessor[T, R any] struct {
	process ProcessFunc[T, R]
	onError ErrorHandlerFunc[T, R]
	config  BatchConfig
	logger  observe.Logger
}

// NewBatchProcessor creates a batch processor around process.
func NewBatchProcessor[T, R any](process ProcessFunc[T, R], config BatchConfig, opts ...BatchOption[T, R]) *BatchProcessor[T, R] {
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.MaxConcurrentBatches <= 0 {
		config.MaxConcurrentBatches = 3
	}

	p := &BatchProcessor[T, R]{
		process: process,
		config:  config,
		logger:  observe.OrNop(config.Logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the processor configuration with defaults applied.
func (p *BatchProcessor[T, R]) Config() BatchConfig {
	return p.config
}

// ProcessBatch processes batch sequentially. A failing item is recorded and
// processing moves on to the next one. Once ctx is done the remaining items
// are recorded with ctx.Err() without being processed.
func (p *BatchProcessor[T, R]) ProcessBatch(ctx context.Context, batch []T) []Result[T, R] {
	results := make([]Result[T, R], 0, len(batch))
	for _, item := range batch {
		if err := ctx.Err(); err != nil {
			results = append(results, Result[T, R]{Item: item, Err: err})
			continue
		}
		results = append(results, p.processItem(ctx, item))
	}
	return results
}

func (p *BatchProcessor[T, R]) processItem(ctx context.Context, item T) Result[T, R] {
	value, err := p.process(ctx, item)
	if err == nil {
		return Result[T, R]{Item: item, Value: value}
	}

	p.logger.Error(ctx, "item processing failed",
		observe.F("item", item),
		observe.F("error", err.Error()),
	)

	if p.onError == nil {
		return Result[T, R]{Item: item, Err: err}
	}

	fallback, herr := p.onError(ctx, item, err)
	if herr != nil {
		p.logger.Error(ctx, "item error handler failed",
			observe.F("item", item),
			observe.F("error", herr.Error()),
		)
		return Result[T, R]{Item: item, Err: herr}
	}
	return Result[T, R]{Item: item, Value: fallback, Err: err}
}

// ProcessAll splits items into batches, runs up to MaxConcurrentBatches of
// them at once and returns one result per item in input order.
//
// progress, when non-nil, is called after each batch with the number of
// items completed so far and the total. Calls are serialized and the final
// call reports completed == total.
func (p *BatchProcessor[T, R]) ProcessAll(ctx context.Context, items []T, progress func(completed, total int)) []Result[T, R] {
	batches := chunk(items, p.config.BatchSize)
	perBatch := make([][]Result[T, R], len(batches))

	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	g.SetLimit(p.config.MaxConcurrentBatches)
	for i, batch := range batches {
		g.Go(func() error {
			p.logger.Debug(ctx, "processing batch",
				observe.F("batch", i+1),
				observe.F("batches", len(batches)),
			)
			perBatch[i] = p.ProcessBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			completed += len(batch)
			if progress != nil {
				progress(completed, len(items))
			}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]Result[T, R], 0, len(items))
	for _, r := range perBatch {
		results = append(results, r...)
	}
	return results
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
