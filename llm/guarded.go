package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/agentops/cache"
	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
	"github.com/jonwraymond/agentops/recovery"
	"github.com/jonwraymond/agentops/resilience"
)

// DefaultComponent is the component LLM errors, breakers and fallbacks are
// registered under.
const DefaultComponent = "llm_client"

// GuardedConfig configures a GuardedClient. Every field is optional.
type GuardedConfig struct {
	// Component names the client in the ErrorHandler.
	// Default: "llm_client"
	Component string

	// Policy is the retry policy applied before the ErrorHandler is
	// consulted. Default: exponential backoff with 3 retries.
	Policy resilience.RetryPolicy

	// CircuitBreaker registers a breaker for Component. When nil, a breaker
	// already registered for Component is used if present.
	CircuitBreaker *resilience.CircuitBreakerConfig

	// RateLimiter paces provider calls.
	RateLimiter *resilience.RateLimiter

	// Semaphores and Pool bound concurrent provider calls.
	Semaphores *resilience.SemaphoreManager
	Pool       string

	// Timeout bounds each attempt.
	Timeout time.Duration

	// Fallback is registered for Component.
	Fallback recovery.FallbackFunc

	// Cache serves repeated requests. Fallback responses are never cached.
	Cache *cache.Middleware

	// Observer traces each attempt.
	Observer *observe.Middleware

	Logger observe.Logger
}

// GuardedClient protects a Client with caching, request coalescing,
// retry, a circuit breaker, rate limiting, a concurrency pool, a timeout
// and an ErrorHandler.
//
// Identical concurrent requests share one provider call. Failures that
// survive retry are handed to the ErrorHandler; a fallback resolution is
// returned as a Response with Fallback set.
type GuardedClient struct {
	client    Client
	handler   *recovery.ErrorHandler
	component string
	executor  *resilience.Executor
	cache     *cache.Middleware
	keyer     cache.Keyer
	group     singleflight.Group
	logger    observe.Logger
}

// NewGuardedClient wraps client. The breaker and fallback in cfg are
// registered on h.
func NewGuardedClient(client Client, h *recovery.ErrorHandler, cfg GuardedConfig) (*GuardedClient, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if h == nil {
		h = recovery.NewErrorHandler()
	}
	if cfg.Component == "" {
		cfg.Component = DefaultComponent
	}
	if cfg.Policy == nil {
		cfg.Policy = resilience.NewExponentialBackoff(resilience.ExponentialBackoffConfig{})
	}
	logger := observe.OrNop(cfg.Logger)

	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(cfg.Policy, resilience.WithRetryLogger(logger))),
	}
	if cfg.CircuitBreaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(h.RegisterCircuitBreaker(cfg.Component, *cfg.CircuitBreaker)))
	} else if cb, ok := h.CircuitBreaker(cfg.Component); ok {
		opts = append(opts, resilience.WithCircuitBreaker(cb))
	}
	if cfg.RateLimiter != nil {
		opts = append(opts, resilience.WithRateLimiter(cfg.RateLimiter))
	}
	if cfg.Semaphores != nil && cfg.Pool != "" {
		opts = append(opts, resilience.WithSemaphore(cfg.Semaphores, cfg.Pool))
	}
	if cfg.Observer != nil {
		opts = append(opts, resilience.WithObserver(cfg.Observer, observe.OperationMeta{
			Component: cfg.Component,
			Operation: "generate",
		}))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, resilience.WithTimeoutConfig(resilience.NewTimeout(resilience.TimeoutConfig{
			Timeout:   cfg.Timeout,
			Message:   "llm request timed out",
			Operation: cfg.Component + ".generate",
		})))
	}
	if cfg.Fallback != nil {
		h.RegisterFallbackStrategy(cfg.Component, cfg.Fallback)
	}

	return &GuardedClient{
		client:    client,
		handler:   h,
		component: cfg.Component,
		executor:  resilience.NewExecutor(opts...),
		cache:     cfg.Cache,
		keyer:     cache.NewDefaultKeyer("inflight"),
		logger:    logger,
	}, nil
}

// Name implements Client.
func (g *GuardedClient) Name() string { return g.client.Name() }

// Generate implements Client.
func (g *GuardedClient) Generate(ctx context.Context, req Request) (Response, error) {
	if g.cache == nil {
		return g.coalesce(ctx, req)
	}

	var resp Response
	raw, hit, err := g.cache.Execute(ctx, g.client.Name(), req, func(ctx context.Context) ([]byte, bool, error) {
		r, err := g.coalesce(ctx, req)
		if err != nil {
			return nil, false, err
		}
		resp = r
		if r.Fallback {
			return nil, false, nil
		}
		b, err := json.Marshal(r)
		if err != nil {
			return nil, false, nil
		}
		return b, true, nil
	})
	if err != nil {
		return Response{}, err
	}
	if !hit {
		return resp, nil
	}

	if err := json.Unmarshal(raw, &resp); err != nil {
		g.logger.Warn(ctx, "discarding unreadable cached response", observe.F("error", err.Error()))
		return g.coalesce(ctx, req)
	}
	resp.Cached = true
	return resp, nil
}

// Invalidate drops the cached response for req.
func (g *GuardedClient) Invalidate(ctx context.Context, req Request) error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Invalidate(ctx, g.client.Name(), req)
}

// coalesce runs identical concurrent requests once. The shared call is
// detached from the cancellation of the request that started it, and each
// caller stops waiting when its own context ends. Deadlines on the shared
// call come from the executor timeout.
func (g *GuardedClient) coalesce(ctx context.Context, req Request) (Response, error) {
	key, err := g.keyer.Key(g.client.Name(), req)
	if err != nil {
		return g.call(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return g.call(shared, req)
	})
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Response{}, r.Err
		}
		return r.Val.(Response), nil
	}
}

// call classifies provider errors inside the retry loop, so errors the
// retry policy must not repeat, such as rejected credentials, fail on the
// first attempt.
func (g *GuardedClient) call(ctx context.Context, req Request) (Response, error) {
	resp, err := resilience.Call(ctx, g.executor, func(ctx context.Context) (Response, error) {
		resp, err := g.client.Generate(ctx, req)
		return resp, ClassifyError(g.client.Name(), err)
	})
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return Response{}, err
	}

	err = g.tag(ClassifyError(g.client.Name(), err))
	out, res, rerr := recovery.Recover[Response](ctx, g.handler, err, map[string]any{
		"provider": g.client.Name(),
		"model":    req.Model,
	})
	if rerr != nil {
		return Response{}, rerr
	}

	switch res.Action {
	case faults.ActionFallback, faults.ActionDegradeGracefully, faults.ActionSkip:
		if out.Provider == "" {
			out.Provider = ProviderFallback
			out.Model = ProviderFallback
		}
		out.Fallback = true
		if out.ErrorID == "" {
			out.ErrorID = res.ErrorID
		}
	}
	return out, nil
}

// tag moves provider errors and errors raised by the guards themselves,
// such as pool timeouts, under the client's component so its fallback
// applies. Tagging happens on a fresh occurrence; a provider may return the
// same error value to many callers.
func (g *GuardedClient) tag(err error) error {
	fe, ok := faults.As(err)
	if !ok {
		return faults.Wrap(err, g.component+" failed", faults.WithComponent(g.component))
	}
	if c := fe.Component(); c == "" || c == DefaultComponent {
		return faults.Occurrence(err, faults.WithComponent(g.component))
	}
	return faults.Occurrence(err)
}
