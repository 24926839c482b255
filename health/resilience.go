package health

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/recovery"
	"github.com/jonwraymond/agentops/resilience"
)

// Error rates, in errors per minute over the last hour.
const (
	elevatedErrorRate = 1.0
	highErrorRate     = 5.0
)

// ResilienceChecker reports the health implied by h's error statistics and
// circuit breakers. Details carry the statistics and a list of
// recommendations.
func ResilienceChecker(h *recovery.ErrorHandler) Checker {
	return NewCheckerFunc("resilience", func(ctx context.Context) Result {
		stats := h.Statistics()
		status := StatusHealthy
		var recommendations []string

		names := make([]string, 0, len(stats.CircuitBreakers))
		for name := range stats.CircuitBreakers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if stats.CircuitBreakers[name].State == resilience.StateOpen {
				status = status.Worst(StatusDegraded)
				recommendations = append(recommendations,
					fmt.Sprintf("circuit breaker %s is open, service degraded", name))
			}
		}

		switch rate := stats.ErrorRate1h; {
		case rate > highErrorRate:
			status = status.Worst(StatusUnhealthy)
			recommendations = append(recommendations,
				fmt.Sprintf("high error rate: %.1f errors/minute", rate))
		case rate > elevatedErrorRate:
			status = status.Worst(StatusDegraded)
			recommendations = append(recommendations,
				fmt.Sprintf("elevated error rate: %.1f errors/minute", rate))
		}

		if n := stats.SeverityDistribution[faults.SeverityCritical]; n > 0 {
			status = status.Worst(StatusUnhealthy)
			recommendations = append(recommendations,
				fmt.Sprintf("%d critical errors need immediate attention", n))
		}

		r := Result{Status: status, Message: Summary(h)}
		return r.WithDetails(map[string]any{
			"error_statistics": stats,
			"recommendations":  recommendations,
		})
	})
}

// Summary returns a one-line description of recent error activity.
func Summary(h *recovery.ErrorHandler) string {
	recent := h.Statistics().RecentErrors1h
	switch {
	case recent == 0:
		return "system healthy, no recent errors"
	case recent < 5:
		return fmt.Sprintf("system stable, %d recent errors", recent)
	default:
		return fmt.Sprintf("system degraded, %d errors in the last hour", recent)
	}
}

// SemaphoreChecker reports degraded while any pool of m is saturated or has
// timed out acquisitions since the previous check.
func SemaphoreChecker(m *resilience.SemaphoreManager) Checker {
	var (
		mu       sync.Mutex
		timeouts = make(map[string]int64)
	)
	return NewCheckerFunc("semaphores", func(ctx context.Context) Result {
		all := m.AllMetrics()

		mu.Lock()
		defer mu.Unlock()

		var issues []string
		details := make(map[string]any, len(all))
		for _, pm := range all {
			details[pm.Name] = pm
			if pm.Active >= int64(pm.MaxConcurrent) {
				issues = append(issues, fmt.Sprintf("pool %s saturated (%d/%d)", pm.Name, pm.Active, pm.MaxConcurrent))
			}
			if pm.Timeouts > timeouts[pm.Name] {
				issues = append(issues, fmt.Sprintf("pool %s had %d acquire timeouts", pm.Name, pm.Timeouts-timeouts[pm.Name]))
			}
			timeouts[pm.Name] = pm.Timeouts
		}

		if len(issues) > 0 {
			details["issues"] = issues
			return Degraded(issues[0]).WithDetails(details)
		}
		return Healthy(fmt.Sprintf("%d pools within limits", len(all))).WithDetails(details)
	})
}
