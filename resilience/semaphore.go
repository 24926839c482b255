package resilience

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
)

// SemaphoreConfig configures one named pool.
type SemaphoreConfig struct {
	// Name identifies the pool.
	Name string

	// MaxConcurrent is the number of slots.
	// Default: 5
	MaxConcurrent int

	// AcquireTimeout bounds the wait for a slot. Zero waits as long as the
	// context allows.
	AcquireTimeout time.Duration
}

// SemaphoreMetrics contains pool counters. Counters are monotonic for the
// life of the manager.
type SemaphoreMetrics struct {
	Name          string `json:"name"`
	MaxConcurrent int    `json:"max_concurrent"`
	Active        int64  `json:"active"`
	Acquired      int64  `json:"acquired"`
	Released      int64  `json:"released"`
	Timeouts      int64  `json:"timeouts"`
	Failures      int64  `json:"failures"`
}

type pool struct {
	config SemaphoreConfig
	sem    *semaphore.Weighted

	acquired atomic.Int64
	released atomic.Int64
	timeouts atomic.Int64
	failures atomic.Int64
}

func (p *pool) metrics() SemaphoreMetrics {
	acquired := p.acquired.Load()
	released := p.released.Load()
	return SemaphoreMetrics{
		Name:          p.config.Name,
		MaxConcurrent: p.config.MaxConcurrent,
		Active:        acquired - released,
		Acquired:      acquired,
		Released:      released,
		Timeouts:      p.timeouts.Load(),
		Failures:      p.failures.Load(),
	}
}

// Permit is a held semaphore slot.
type Permit struct {
	pool *pool
	once sync.Once
}

// Release returns the slot to its pool. A non-nil err is counted as a
// failure of the work done under the permit. Only the first call has any
// effect.
func (p *Permit) Release(err error) {
	p.once.Do(func() {
		if err != nil {
			p.pool.failures.Add(1)
		}
		p.pool.released.Add(1)
		p.pool.sem.Release(1)
	})
}

// SemaphoreOption configures a SemaphoreManager.
type SemaphoreOption func(*SemaphoreManager)

// WithSemaphoreLogger sets the logger for acquire and release events.
func WithSemaphoreLogger(logger observe.Logger) SemaphoreOption {
	return func(m *SemaphoreManager) { m.logger = observe.OrNop(logger) }
}

// SemaphoreManager owns a set of named concurrency pools.
type SemaphoreManager struct {
	mu     sync.RWMutex
	pools  map[string]*pool
	logger observe.Logger
}

// NewSemaphoreManager creates an empty manager.
func NewSemaphoreManager(opts ...SemaphoreOption) *SemaphoreManager {
	m := &SemaphoreManager{
		pools:  make(map[string]*pool),
		logger: observe.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates or replaces the pool named config.Name. Permits held on a
// replaced pool release into the pool they were acquired from.
func (m *SemaphoreManager) Register(config SemaphoreConfig) {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}

	p := &pool{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}

	m.mu.Lock()
	m.pools[config.Name] = p
	m.mu.Unlock()

	m.logger.Info(context.Background(), "semaphore registered",
		observe.F("pool", config.Name),
		observe.F("max_concurrent", config.MaxConcurrent),
	)
}

func (m *SemaphoreManager) lookup(name string) (*pool, error) {
	m.mu.RLock()
	p, ok := m.pools[name]
	m.mu.RUnlock()
	if !ok {
		return nil, faults.Wrap(ErrSemaphoreNotRegistered, "semaphore "+name+" not registered",
			faults.WithCategory(faults.CategoryConfiguration),
			faults.WithComponent("semaphore_manager"),
			faults.WithOperation(name),
		)
	}
	return p, nil
}

// Acquire waits for a slot in the named pool. The caller must Release the
// returned permit.
func (m *SemaphoreManager) Acquire(ctx context.Context, name string) (*Permit, error) {
	p, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	waitCtx := ctx
	if p.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.timeouts.Add(1)
		m.logger.Warn(ctx, "semaphore acquire timed out",
			observe.F("pool", name),
			observe.F("timeout_ms", p.config.AcquireTimeout.Milliseconds()),
		)
		return nil, faults.Timeout(name, "semaphore acquire timed out",
			faults.WithCause(ErrAcquireTimeout),
			faults.WithComponent("semaphore_manager"),
		)
	}

	p.acquired.Add(1)
	m.logger.Debug(ctx, "semaphore acquired", observe.F("pool", name))
	return &Permit{pool: p}, nil
}

// Execute runs op while holding a slot of the named pool. The slot is
// released when op returns or panics; an error or panic counts as a failure.
func (m *SemaphoreManager) Execute(ctx context.Context, name string, op func(context.Context) error) (err error) {
	permit, err := m.Acquire(ctx, name)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked {
			permit.Release(errPanicked)
		} else {
			permit.Release(err)
		}
		m.logger.Debug(ctx, "semaphore released", observe.F("pool", name))
	}()

	err = op(ctx)
	panicked = false
	return err
}

var errPanicked = errors.New("resilience: operation panicked")

// Metrics returns the counters of the named pool.
func (m *SemaphoreManager) Metrics(name string) (SemaphoreMetrics, error) {
	p, err := m.lookup(name)
	if err != nil {
		return SemaphoreMetrics{}, err
	}
	return p.metrics(), nil
}

// AllMetrics returns the counters of every pool, ordered by name.
func (m *SemaphoreManager) AllMetrics() []SemaphoreMetrics {
	m.mu.RLock()
	out := make([]SemaphoreMetrics, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, p.metrics())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered pool names in sorted order.
func (m *SemaphoreManager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.pools))
	for name := range m.pools {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Pool returns a Runner bound to the named pool, for use with Executor.
func (m *SemaphoreManager) Pool(name string) *SemaphorePool {
	return &SemaphorePool{manager: m, name: name}
}

// SemaphorePool runs operations inside one named pool.
type SemaphorePool struct {
	manager *SemaphoreManager
	name    string
}

// Execute implements Runner.
func (p *SemaphorePool) Execute(ctx context.Context, op func(context.Context) error) error {
	return p.manager.Execute(ctx, p.name, op)
}
