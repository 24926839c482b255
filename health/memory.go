package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jonwraymond/agentops/faults"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap usage ratio that degrades the service.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap usage ratio that makes the service
	// unhealthy.
	// Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap ceiling in bytes. Zero uses the memory obtained
	// from the OS.
	MaxAlloc uint64
}

// MemoryChecker checks heap usage against a ceiling.
type MemoryChecker struct {
	config MemoryCheckerConfig
	read   func(*runtime.MemStats)
}

// NewMemoryChecker creates a memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &MemoryChecker{config: config, read: runtime.ReadMemStats}
}

// Name implements Checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check implements Checker. A critical result carries a resource
// exhaustion error.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context canceled", err)
	}

	var stats runtime.MemStats
	m.read(&stats)

	ceiling := m.config.MaxAlloc
	if ceiling == 0 {
		ceiling = stats.Sys
	}
	if ceiling == 0 {
		return Healthy("memory stats unavailable")
	}

	usage := float64(stats.HeapAlloc) / float64(ceiling)
	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"max_alloc_bytes":  ceiling,
		"usage_percent":    usage * 100,
		"num_gc":           stats.NumGC,
		"goroutines":       runtime.NumGoroutine(),
	}

	switch {
	case usage >= m.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", usage*100),
			faults.ResourceExhaustion("memory", usage)).WithDetails(details)
	case usage >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", usage*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", usage*100)).WithDetails(details)
	}
}
