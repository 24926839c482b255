package recovery

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
	"github.com/jonwraymond/agentops/resilience"
)

// HandlerFunc proposes a recovery action for an error. Returning
// faults.ActionNone defers to the next handler.
type HandlerFunc func(ec faults.ErrorContext) faults.RecoveryAction

// FallbackFunc produces a substitute result for a failed component.
type FallbackFunc func(ctx context.Context, ec faults.ErrorContext) (any, error)

// Resolution describes how HandleError resolved an error.
type Resolution struct {
	Action  faults.RecoveryAction `json:"action"`
	ErrorID string                `json:"error_id"`

	// Value is the fallback result or a *DegradedResponse.
	Value any `json:"value,omitempty"`
}

// DegradedResponse is the minimal payload returned when a component degrades
// gracefully.
type DegradedResponse struct {
	Status      string    `json:"status"`
	ErrorID     string    `json:"error_id"`
	Message     string    `json:"message"`
	Component   string    `json:"component"`
	Timestamp   time.Time `json:"timestamp"`
	PartialData bool      `json:"partial_data"`
}

var defaultActions = map[faults.Category]faults.RecoveryAction{
	faults.CategoryAgentFailure:  faults.ActionRetry,
	faults.CategoryLLMAPIFailure: faults.ActionRetry,
	faults.CategoryNetworkError:  faults.ActionRetry,
	faults.CategoryTimeoutError:  faults.ActionRetry,
	faults.CategoryValidation:    faults.ActionFailFast,
	faults.CategoryResourceError: faults.ActionDegradeGracefully,
	faults.CategoryDataError:     faults.ActionFallback,
	faults.CategoryConfiguration: faults.ActionFailFast,
	faults.CategoryUnknown:       faults.ActionEscalate,
}

// DefaultAction returns the recovery action used for category when no
// handler or hint decides.
func DefaultAction(category faults.Category) faults.RecoveryAction {
	if a, ok := defaultActions[category]; ok {
		return a
	}
	return faults.ActionEscalate
}

// Option configures an ErrorHandler.
type Option func(*ErrorHandler)

// WithLogger sets the logger. Default: no-op.
func WithLogger(logger observe.Logger) Option {
	return func(h *ErrorHandler) {
		h.logger = observe.OrNop(logger)
	}
}

// WithClock replaces time.Now for statistics and degraded responses.
func WithClock(now func() time.Time) Option {
	return func(h *ErrorHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithMetrics records handled errors and chosen actions in m.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(h *ErrorHandler) {
		h.metrics = m
	}
}

// ErrorHandler is the central error classification and recovery dispatcher.
// It is safe for concurrent use.
type ErrorHandler struct {
	mu        sync.Mutex
	handlers  map[faults.Category][]HandlerFunc
	fallbacks map[string]FallbackFunc
	breakers  map[string]*resilience.CircuitBreaker
	log       []*faults.ErrorContext

	logger  observe.Logger
	metrics *PrometheusMetrics
	now     func() time.Time
}

// NewErrorHandler creates an empty error handler.
func NewErrorHandler(opts ...Option) *ErrorHandler {
	h := &ErrorHandler{
		handlers:  make(map[faults.Category][]HandlerFunc),
		fallbacks: make(map[string]FallbackFunc),
		breakers:  make(map[string]*resilience.CircuitBreaker),
		logger:    observe.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterErrorHandler appends fn to the handlers consulted for category.
func (h *ErrorHandler) RegisterErrorHandler(category faults.Category, fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[category] = append(h.handlers[category], fn)
}

// RegisterFallbackStrategy sets the fallback for component, replacing any
// previous one.
func (h *ErrorHandler) RegisterFallbackStrategy(component string, fn FallbackFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallbacks[component] = fn
}

// RegisterCircuitBreaker creates a circuit breaker for component and
// returns it. An empty config.Name is set to component.
func (h *ErrorHandler) RegisterCircuitBreaker(component string, config resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	if config.Name == "" {
		config.Name = component
	}
	cb := resilience.NewCircuitBreaker(config)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.breakers[component] = cb
	return cb
}

// CircuitBreaker returns the breaker registered for component.
func (h *ErrorHandler) CircuitBreaker(component string) (*resilience.CircuitBreaker, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cb, ok := h.breakers[component]
	return cb, ok
}

// CircuitBreakers returns a copy of the breaker registry.
func (h *ErrorHandler) CircuitBreakers() map[string]*resilience.CircuitBreaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.breakers)
}

// HandleError records err, chooses a recovery action and executes it.
//
// data is merged into the error's context without overwriting existing keys.
// The returned error is nil when the action produced a usable resolution
// (retry, successful fallback, skip, degrade). It is the original error for
// fail_fast or a failed fallback, and an escalated critical error for
// escalate.
func (h *ErrorHandler) HandleError(ctx context.Context, err error, data map[string]any) (Resolution, error) {
	if err == nil {
		return Resolution{}, nil
	}

	ec := faults.Classify(err)

	h.mu.Lock()
	ec.Merge(data)
	h.log = append(h.log, ec)
	snapshot := ec.Clone()
	handlers := append([]HandlerFunc(nil), h.handlers[ec.Category]...)
	h.mu.Unlock()

	h.logger.Error(ctx, "error handled",
		observe.F("error_id", snapshot.ErrorID),
		observe.F("component", snapshot.Component),
		observe.F("operation", snapshot.Operation),
		observe.F("category", string(snapshot.Category)),
		observe.F("severity", string(snapshot.Severity)),
		observe.F("error", snapshot.ErrorMessage),
	)

	action := h.decide(ctx, snapshot, handlers)

	h.mu.Lock()
	ec.RecoveryAction = action
	h.mu.Unlock()

	res, rerr := h.execute(ctx, ec, err, action)
	if h.metrics != nil {
		h.metrics.observe(snapshot, res.Action)
	}
	return res, rerr
}

// decide picks the action for ec: registered handlers first, then the preset
// hint on the error, then the category default. Category and severity
// overrides apply last.
func (h *ErrorHandler) decide(ctx context.Context, ec faults.ErrorContext, handlers []HandlerFunc) faults.RecoveryAction {
	action := faults.ActionNone
	for _, fn := range handlers {
		if action = h.consult(ctx, fn, ec); action != faults.ActionNone {
			break
		}
	}
	if action == faults.ActionNone {
		action = ec.RecoveryAction
	}
	if action == faults.ActionNone {
		action = DefaultAction(ec.Category)
	}

	switch {
	case ec.Category == faults.CategoryValidation:
		return faults.ActionFailFast
	case ec.Severity == faults.SeverityCritical:
		return faults.ActionFailFast
	case ec.Category == faults.CategoryConfiguration && action == faults.ActionRetry:
		return faults.ActionFailFast
	case ec.Severity == faults.SeverityHigh && action == faults.ActionRetry && ec.RetryCount >= 2:
		return faults.ActionEscalate
	}
	return action
}

func (h *ErrorHandler) consult(ctx context.Context, fn HandlerFunc, ec faults.ErrorContext) (action faults.RecoveryAction) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn(ctx, "error handler panicked",
				observe.F("error_id", ec.ErrorID),
				observe.F("panic", fmt.Sprint(r)),
			)
			action = faults.ActionNone
		}
	}()
	return fn(ec)
}

func (h *ErrorHandler) execute(ctx context.Context, ec *faults.ErrorContext, orig error, action faults.RecoveryAction) (Resolution, error) {
	res := Resolution{Action: action, ErrorID: ec.ErrorID}

	switch action {
	case faults.ActionRetry:
		h.mu.Lock()
		if ec.RetryCount < ec.MaxRetries {
			ec.RetryCount++
			attempt := ec.RetryCount
			h.mu.Unlock()
			h.logger.Info(ctx, "retry granted",
				observe.F("error_id", ec.ErrorID),
				observe.F("retry_count", attempt),
			)
			return res, nil
		}
		ec.RecoveryAction = faults.ActionEscalate
		h.mu.Unlock()
		h.logger.Error(ctx, "retries exhausted", observe.F("error_id", ec.ErrorID))
		return h.execute(ctx, ec, orig, faults.ActionEscalate)

	case faults.ActionFallback:
		return h.fallback(ctx, ec, orig, res)

	case faults.ActionSkip:
		h.logger.Info(ctx, "operation skipped", observe.F("error_id", ec.ErrorID))
		return res, nil

	case faults.ActionDegradeGracefully:
		h.logger.Info(ctx, "degrading gracefully", observe.F("error_id", ec.ErrorID))
		res.Value = &DegradedResponse{
			Status:      "degraded",
			ErrorID:     ec.ErrorID,
			Message:     "service degraded, partial results returned",
			Component:   ec.Component,
			Timestamp:   h.now(),
			PartialData: true,
		}
		return res, nil

	case faults.ActionFailFast:
		h.logger.Error(ctx, "failing fast", observe.F("error_id", ec.ErrorID))
		return res, orig

	default:
		h.mu.Lock()
		snapshot := ec.Clone()
		h.mu.Unlock()
		h.logger.Error(ctx, "escalating error", observe.F("error_id", ec.ErrorID))
		res.Action = faults.ActionEscalate
		return res, faults.Escalated(orig, &snapshot)
	}
}

func (h *ErrorHandler) fallback(ctx context.Context, ec *faults.ErrorContext, orig error, res Resolution) (Resolution, error) {
	h.mu.Lock()
	fn, ok := h.fallbacks[ec.Component]
	snapshot := ec.Clone()
	h.mu.Unlock()

	if !ok {
		h.logger.Warn(ctx, "no fallback registered", observe.F("component", ec.Component))
		return res, orig
	}

	h.logger.Info(ctx, "running fallback", observe.F("component", ec.Component))
	v, err := runFallback(ctx, fn, snapshot)
	if err != nil {
		h.logger.Error(ctx, "fallback failed",
			observe.F("component", ec.Component),
			observe.F("error", err.Error()),
		)
		return res, orig
	}
	res.Value = v
	return res, nil
}

func runFallback(ctx context.Context, fn FallbackFunc, ec faults.ErrorContext) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery: fallback panicked: %v", r)
		}
	}()
	return fn(ctx, ec)
}
