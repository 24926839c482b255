package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/agentops/agent"
	"github.com/jonwraymond/agentops/cache"
	"github.com/jonwraymond/agentops/config"
	"github.com/jonwraymond/agentops/health"
	"github.com/jonwraymond/agentops/llm"
	"github.com/jonwraymond/agentops/observe"
	"github.com/jonwraymond/agentops/recovery"
	"github.com/jonwraymond/agentops/resilience"
)

// app holds every long-lived component of the daemon.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	logger   observe.Logger
	registry *prometheus.Registry

	semaphores *resilience.SemaphoreManager
	handler    *recovery.ErrorHandler
	limiters   map[string]*resilience.RateLimiter
	runner     *agent.Runner
	llm        llm.Client
	cache      cache.Cache
	health     *health.Aggregator
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	obs, err := observe.NewObserver(ctx, cfg.Observe, observe.WithPrometheusRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("observer middleware: %w", err)
	}
	a := &app{
		cfg:      cfg,
		observer: obs,
		logger:   obs.Logger(),
		registry: reg,
		limiters: make(map[string]*resilience.RateLimiter),
	}

	a.semaphores = resilience.NewSemaphoreManager(resilience.WithSemaphoreLogger(a.logger))
	for _, s := range cfg.Semaphores {
		a.semaphores.Register(s.Resilience())
	}

	a.handler = recovery.NewErrorHandler(
		recovery.WithLogger(a.logger),
		recovery.WithMetrics(recovery.NewPrometheusMetrics(reg)),
	)
	recovery.InstallDefaults(a.handler, cfg.Agents.Critical...)
	for _, b := range cfg.Breakers {
		bc := b.Resilience()
		bc.OnStateChange = func(name string, from, to resilience.State) {
			a.logger.Warn(context.Background(), "circuit breaker state changed",
				observe.F("component", name),
				observe.F("from", from.String()),
				observe.F("to", to.String()),
			)
		}
		a.handler.RegisterCircuitBreaker(b.Component, bc)
	}
	reg.MustRegister(recovery.NewCollector(a.handler, a.semaphores))

	for _, r := range cfg.RateLimits {
		a.limiters[r.Name] = resilience.NewRateLimiter(r.Resilience())
	}

	a.runner = agent.NewRunner(a.handler, agent.Config{
		Semaphores:    a.semaphores,
		Pool:          cfg.Agents.Pool,
		MaxConcurrent: cfg.Agents.MaxConcurrent,
		Timeout:       cfg.Agents.Timeout,
		MaxRetries:    cfg.Agents.MaxRetries,
		Backoff:       cfg.Retry.Policy(),
		Observer:      mw,
		Logger:        a.logger,
	})

	if err := a.buildCache(ctx); err != nil {
		return nil, err
	}
	if err := a.buildLLM(mw); err != nil {
		return nil, err
	}

	a.health = health.NewAggregator(health.AggregatorConfig{Timeout: cfg.Health.Timeout})
	a.health.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{
		WarningThreshold:  cfg.Health.MemoryWarning,
		CriticalThreshold: cfg.Health.MemoryCritical,
		MaxAlloc:          cfg.Health.MemoryMaxAlloc,
	}))
	a.health.Register("resilience", health.ResilienceChecker(a.handler))
	a.health.Register("semaphores", health.SemaphoreChecker(a.semaphores))

	return a, nil
}

func (a *app) buildCache(ctx context.Context) error {
	if !a.cfg.Cache.Enabled {
		return nil
	}
	if a.cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: a.cfg.Cache.RedisURL})
		if err != nil {
			return err
		}
		a.cache = rc
		a.logger.Info(ctx, "using redis response cache")
		return nil
	}
	a.cache = cache.NewMemoryCache(a.cfg.Cache.Memory())
	return nil
}

func (a *app) buildLLM(mw *observe.Middleware) error {
	lc := a.cfg.LLM
	clients := map[string]llm.Client{}
	opts := func(p config.ProviderConfig) llm.Options {
		return llm.Options{
			APIKey:      p.APIKey,
			Model:       p.Model,
			BaseURL:     p.BaseURL,
			Temperature: lc.Temperature,
			MaxTokens:   lc.MaxTokens,
		}
	}
	if lc.OpenAI.Configured() {
		c, err := llm.NewOpenAIClient(opts(lc.OpenAI))
		if err != nil {
			return fmt.Errorf("openai client: %w", err)
		}
		clients[llm.ProviderOpenAI] = c
	}
	if lc.Anthropic.Configured() {
		c, err := llm.NewAnthropicClient(opts(lc.Anthropic))
		if err != nil {
			return fmt.Errorf("anthropic client: %w", err)
		}
		clients[llm.ProviderAnthropic] = c
	}

	primary, ok := clients[lc.Provider]
	if !ok {
		a.logger.Info(context.Background(), "llm client disabled", observe.F("provider", lc.Provider))
		return nil
	}
	client := primary
	if lc.Failover {
		var backup llm.Client
		for name, c := range clients {
			if name != lc.Provider {
				backup = c
			}
		}
		f, err := llm.NewFailoverClient(primary, backup, llm.FailoverConfig{Logger: a.logger})
		if err != nil {
			return err
		}
		client = f
	}

	gc := llm.GuardedConfig{
		Policy:     a.llmRetry(),
		Semaphores: a.semaphores,
		Pool:       lc.Pool,
		Timeout:    lc.Timeout,
		Fallback:   llm.StaticFallback(""),
		Observer:   mw,
		Logger:     a.logger,
	}
	if rl, ok := a.limiters[lc.RateLimit]; ok {
		gc.RateLimiter = rl
	}
	if a.cache != nil {
		m, err := cache.NewMiddleware(a.cache, cache.WithPolicy(a.cfg.Cache.Policy()), cache.WithLogger(a.logger))
		if err != nil {
			return err
		}
		gc.Cache = m
	}

	guarded, err := llm.NewGuardedClient(client, a.handler, gc)
	if err != nil {
		return err
	}
	a.llm = guarded
	return nil
}

// llmRetry applies the LLM retry budget to the global retry settings.
func (a *app) llmRetry() resilience.RetryPolicy {
	rc := a.cfg.Retry
	rc.MaxRetries = a.cfg.LLM.MaxRetries
	return rc.Policy()
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, a.health, a.handler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /v1/generate", generateHandler(a.llm))
	mux.HandleFunc("POST /v1/nps/analyze", a.analyzeHandler())
	return mux
}

// serve runs the HTTP server until ctx is done, then shuts it down.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "listening", observe.F("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	a.logger.Info(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}

// close flushes telemetry, exports the error log and releases the cache.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if path := a.cfg.Recovery.ErrorLogPath; path != "" {
		if err := a.handler.ExportErrorLogFile(path); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Info(ctx, "error log exported", observe.F("path", path))
		}
	}
	if rc, ok := a.cache.(*cache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.observer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
