package recovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/resilience"
)

const namespace = "agentops"

// PrometheusMetrics counts handled errors and the recovery actions taken.
//
// Metrics:
//
//   - agentops_errors_total{category,severity,component}
//   - agentops_recovery_actions_total{action}
type PrometheusMetrics struct {
	errors  *prometheus.CounterVec
	actions *prometheus.CounterVec
}

// NewPrometheusMetrics creates the counters and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors handled by the error handler",
		}, []string{"category", "severity", "component"}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_actions_total",
			Help:      "Recovery actions executed by the error handler",
		}, []string{"action"}),
	}
}

func (m *PrometheusMetrics) observe(ec faults.ErrorContext, action faults.RecoveryAction) {
	m.errors.WithLabelValues(string(ec.Category), string(ec.Severity), ec.Component).Inc()
	m.actions.WithLabelValues(string(action)).Inc()
}

// Collector exports point-in-time state of an ErrorHandler and, optionally,
// a SemaphoreManager.
//
// Metrics:
//
//   - agentops_errors_recent: errors logged in the last hour
//   - agentops_circuit_breaker_state{component}: 0 closed, 1 open, 2 half open
//   - agentops_circuit_breaker_failures{component}
//   - agentops_semaphore_max_concurrent{pool}
//   - agentops_semaphore_active{pool}
//   - agentops_semaphore_acquired_total{pool}
//   - agentops_semaphore_released_total{pool}
//   - agentops_semaphore_timeouts_total{pool}
//   - agentops_semaphore_failures_total{pool}
type Collector struct {
	handler *ErrorHandler
	sems    *resilience.SemaphoreManager

	recent          *prometheus.Desc
	breakerState    *prometheus.Desc
	breakerFailures *prometheus.Desc
	semMax          *prometheus.Desc
	semActive       *prometheus.Desc
	semAcquired     *prometheus.Desc
	semReleased     *prometheus.Desc
	semTimeouts     *prometheus.Desc
	semFailures     *prometheus.Desc
}

// NewCollector creates a collector for h. sems may be nil.
func NewCollector(h *ErrorHandler, sems *resilience.SemaphoreManager) *Collector {
	pool := []string{"pool"}
	return &Collector{
		handler: h,
		sems:    sems,

		recent: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "errors_recent"),
			"Errors logged in the last hour", nil, nil),
		breakerState: prometheus.NewDesc(prometheus.BuildFQName(namespace, "circuit_breaker", "state"),
			"Circuit breaker state (0 closed, 1 open, 2 half open)", []string{"component"}, nil),
		breakerFailures: prometheus.NewDesc(prometheus.BuildFQName(namespace, "circuit_breaker", "failures"),
			"Current circuit breaker failure count", []string{"component"}, nil),
		semMax: prometheus.NewDesc(prometheus.BuildFQName(namespace, "semaphore", "max_concurrent"),
			"Semaphore pool capacity", pool, nil),
		semActive: prometheus.NewDesc(prometheus.BuildFQName(namespace, "semaphore", "active"),
			"Semaphore permits currently held", pool, nil),
		semAcquired: prometheus.NewDesc(prometheus.BuildFQName(namespace, "semaphore", "acquired_total"),
			"Semaphore permits acquired", pool, nil),
		semReleased: prometheus.NewDesc(prometheus.BuildFQName(namespace, "semaphore", "released_total"),
			"Semaphore permits released", pool, nil),
		semTimeouts: prometheus.NewDesc(prometheus.BuildFQName(namespace, "semaphore", "timeouts_total"),
			"Semaphore acquisitions that timed out", pool, nil),
		semFailures: prometheus.NewDesc(prometheus.BuildFQName(namespace, "semaphore", "failures_total"),
			"Operations that failed while holding a permit", pool, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recent
	ch <- c.breakerState
	ch <- c.breakerFailures
	if c.sems != nil {
		ch <- c.semMax
		ch <- c.semActive
		ch <- c.semAcquired
		ch <- c.semReleased
		ch <- c.semTimeouts
		ch <- c.semFailures
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.handler.Statistics()
	ch <- prometheus.MustNewConstMetric(c.recent, prometheus.GaugeValue, float64(stats.RecentErrors1h))

	for name, snap := range stats.CircuitBreakers {
		ch <- prometheus.MustNewConstMetric(c.breakerState, prometheus.GaugeValue, float64(snap.State), name)
		ch <- prometheus.MustNewConstMetric(c.breakerFailures, prometheus.GaugeValue, float64(snap.FailureCount), name)
	}

	if c.sems == nil {
		return
	}
	for _, m := range c.sems.AllMetrics() {
		ch <- prometheus.MustNewConstMetric(c.semMax, prometheus.GaugeValue, float64(m.MaxConcurrent), m.Name)
		ch <- prometheus.MustNewConstMetric(c.semActive, prometheus.GaugeValue, float64(m.Active), m.Name)
		ch <- prometheus.MustNewConstMetric(c.semAcquired, prometheus.CounterValue, float64(m.Acquired), m.Name)
		ch <- prometheus.MustNewConstMetric(c.semReleased, prometheus.CounterValue, float64(m.Released), m.Name)
		ch <- prometheus.MustNewConstMetric(c.semTimeouts, prometheus.CounterValue, float64(m.Timeouts), m.Name)
		ch <- prometheus.MustNewConstMetric(c.semFailures, prometheus.CounterValue, float64(m.Failures), m.Name)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
