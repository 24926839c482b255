package cache

import (
	"context"

	"github.com/jonwraymond/agentops/observe"
)

// Func produces a value on a cache miss. store reports whether the value
// may be cached; fallbacks and partial results return false.
type Func func(ctx context.Context) (value []byte, store bool, err error)

// Middleware puts a Cache in front of a Func.
type Middleware struct {
	cache  Cache
	keyer  Keyer
	policy Policy
	logger observe.Logger
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithKeyer replaces the default keyer.
func WithKeyer(k Keyer) MiddlewareOption {
	return func(m *Middleware) { m.keyer = k }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) MiddlewareOption {
	return func(m *Middleware) { m.policy = p }
}

// WithLogger sets the logger for key failures.
func WithLogger(l observe.Logger) MiddlewareOption {
	return func(m *Middleware) { m.logger = l }
}

// NewMiddleware creates a cache middleware.
func NewMiddleware(c Cache, opts ...MiddlewareOption) (*Middleware, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	m := &Middleware{
		cache:  c,
		keyer:  NewDefaultKeyer(""),
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = observe.OrNop(m.logger)
	return m, nil
}

// Execute returns the cached value for (namespace, input) or calls fn.
// hit reports whether the value came from the cache. Errors are never
// cached; neither are values fn marks as not storable.
func (m *Middleware) Execute(ctx context.Context, namespace string, input any, fn Func) (value []byte, hit bool, err error) {
	ttl := m.policy.TTL(namespace)
	if ttl <= 0 {
		value, _, err = fn(ctx)
		return value, false, err
	}

	key, err := m.keyer.Key(namespace, input)
	if err != nil {
		m.logger.Debug(ctx, "cache key failed", observe.F("namespace", namespace), observe.F("error", err.Error()))
		value, _, err = fn(ctx)
		return value, false, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, true, nil
	}

	value, store, err := fn(ctx)
	if err != nil || !store {
		return value, false, err
	}

	if serr := m.cache.Set(ctx, key, value, ttl); serr != nil {
		m.logger.Warn(ctx, "cache set failed", observe.F("namespace", namespace), observe.F("error", serr.Error()))
	}
	return value, false, nil
}

// Invalidate removes the entry for (namespace, input).
func (m *Middleware) Invalidate(ctx context.Context, namespace string, input any) error {
	key, err := m.keyer.Key(namespace, input)
	if err != nil {
		return err
	}
	return m.cache.Delete(ctx, key)
}
