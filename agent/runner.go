package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
	"github.com/jonwraymond/agentops/parallel"
	"github.com/jonwraymond/agentops/recovery"
	"github.com/jonwraymond/agentops/resilience"
)

// ErrNoAgent is returned for a task without an agent.
var ErrNoAgent = errors.New("agent: agent is required")

// Config configures a Runner.
type Config struct {
	// Semaphores and Pool bound concurrent agent runs across the process.
	Semaphores *resilience.SemaphoreManager
	Pool       string

	// MaxConcurrent bounds the tasks RunAll starts at once.
	// Default: 5
	MaxConcurrent int

	// Timeout bounds each run of an agent.
	// Default: 60s
	Timeout time.Duration

	// MaxRetries is the retry budget recorded on agent errors. The
	// ErrorHandler escalates once it is spent.
	// Default: 3
	MaxRetries int

	// Backoff spaces the reruns the ErrorHandler asks for.
	// Default: exponential backoff with a 1s base delay.
	Backoff resilience.RetryPolicy

	// CircuitBreaker, when set, gives every agent its own breaker
	// registered on the ErrorHandler as agent_<id>.
	CircuitBreaker *resilience.CircuitBreakerConfig

	// Observer traces each run.
	Observer *observe.Middleware

	Logger observe.Logger
}

// Runner executes agents with recovery.
type Runner struct {
	handler *recovery.ErrorHandler
	config  Config
	logger  observe.Logger

	mu        sync.Mutex
	executors map[string]*resilience.Executor
}

// NewRunner creates a runner that reports failures to h.
func NewRunner(h *recovery.ErrorHandler, config Config) *Runner {
	if h == nil {
		h = recovery.NewErrorHandler()
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = faults.DefaultMaxRetries
	}
	if config.Backoff == nil {
		config.Backoff = resilience.NewExponentialBackoff(resilience.ExponentialBackoffConfig{})
	}
	return &Runner{
		handler:   h,
		config:    config,
		logger:    observe.OrNop(config.Logger),
		executors: make(map[string]*resilience.Executor),
	}
}

// Component returns the component name agent errors are recorded under.
func Component(agentID string) string {
	return "agent_" + agentID
}

// Run executes a with input. A failure is handed to the ErrorHandler; a
// retry resolution runs the agent again after the backoff delay, until the
// handler decides otherwise. Cancellation of ctx ends the run without
// involving the handler.
func (r *Runner) Run(ctx context.Context, a Agent, input any) Outcome {
	if a == nil {
		return Outcome{Err: ErrNoAgent}
	}
	id := a.ID()
	start := time.Now()
	exec := r.executor(id)
	out := Outcome{AgentID: id}

	for retries := 0; ; retries++ {
		out.Attempts++
		v, err := resilience.Call(ctx, exec, func(ctx context.Context) (any, error) {
			return a.Run(ctx, input)
		})
		if err == nil {
			out.Value, out.Resolution, out.Err = v, recovery.Resolution{}, nil
			break
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			out.Err = err
			break
		}

		out.Value, out.Resolution, out.Err = recovery.Recover[any](ctx, r.handler, r.tag(id, err, retries), map[string]any{
			"agent_id": id,
		})
		if out.Resolution.Action != faults.ActionRetry {
			break
		}
		if serr := sleep(ctx, r.config.Backoff.Delay(retries)); serr != nil {
			out.Err = serr
			break
		}
	}

	out.Duration = time.Since(start)
	r.log(ctx, out)
	return out
}

// RunAll runs every task with at most MaxConcurrent in flight and returns
// one Outcome per task in input order.
func (r *Runner) RunAll(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	idx := make([]int, len(tasks))
	for i := range idx {
		idx[i] = i
	}

	_, err := parallel.Map(ctx, idx, r.config.MaxConcurrent, func(ctx context.Context, i int) (struct{}, error) {
		outcomes[i] = r.Run(ctx, tasks[i].Agent, tasks[i].Input)
		return struct{}{}, nil
	})
	if err != nil {
		for i, t := range tasks {
			if outcomes[i].Attempts == 0 && outcomes[i].Err == nil {
				outcomes[i] = Outcome{Err: err}
				if t.Agent != nil {
					outcomes[i].AgentID = t.Agent.ID()
				}
			}
		}
	}
	return outcomes
}

func (r *Runner) executor(id string) *resilience.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.executors[id]; ok {
		return e
	}

	component := Component(id)
	var opts []resilience.ExecutorOption
	if r.config.CircuitBreaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(r.handler.RegisterCircuitBreaker(component, *r.config.CircuitBreaker)))
	}
	if r.config.Semaphores != nil && r.config.Pool != "" {
		opts = append(opts, resilience.WithSemaphore(r.config.Semaphores, r.config.Pool))
	}
	if r.config.Observer != nil {
		opts = append(opts, resilience.WithObserver(r.config.Observer, observe.OperationMeta{
			Component: component,
			Operation: "run",
			AgentID:   id,
		}))
	}
	opts = append(opts, resilience.WithTimeoutConfig(resilience.NewTimeout(resilience.TimeoutConfig{
		Timeout:   r.config.Timeout,
		Message:   "agent run timed out",
		Operation: component,
	})))

	e := resilience.NewExecutor(opts...)
	r.executors[id] = e
	return e
}

// tag attributes err to the agent and records how many reruns came before
// it, so handlers see the agent's retry history. Agents may return a shared
// error value, so the bookkeeping goes on a fresh occurrence.
func (r *Runner) tag(id string, err error, retries int) error {
	var fe *faults.Error
	if _, ok := faults.As(err); ok {
		fe = faults.Occurrence(err)
	} else {
		fe = faults.AgentExecution(id, fmt.Sprintf("agent %s failed", id),
			faults.WithCause(err),
			faults.WithMaxRetries(r.config.MaxRetries),
		)
	}
	ec := fe.Context()
	if ec.AgentID == "" {
		ec.AgentID = id
	}
	if ec.Component == "" {
		ec.Component = Component(id)
	}
	ec.RetryCount = retries
	return fe
}
