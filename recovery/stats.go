package recovery

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/resilience"
)

// recentWindow is the rolling window behind RecentErrors1h and ErrorRate1h.
const recentWindow = time.Hour

// Statistics summarizes the error log for health reporting.
type Statistics struct {
	TotalErrors    int `json:"total_errors"`
	RecentErrors1h int `json:"recent_errors_1h"`

	// ErrorRate1h is errors per minute over the last hour.
	ErrorRate1h float64 `json:"error_rate_1h"`

	CategoryDistribution  map[faults.Category]int `json:"category_distribution"`
	SeverityDistribution  map[faults.Severity]int `json:"severity_distribution"`
	ComponentDistribution map[string]int          `json:"component_distribution"`

	CircuitBreakers map[string]resilience.CircuitBreakerSnapshot `json:"circuit_breaker_states"`
}

// Statistics aggregates the error log and snapshots every registered
// circuit breaker.
func (h *ErrorHandler) Statistics() Statistics {
	stats := Statistics{
		CategoryDistribution:  make(map[faults.Category]int),
		SeverityDistribution:  make(map[faults.Severity]int),
		ComponentDistribution: make(map[string]int),
		CircuitBreakers:       make(map[string]resilience.CircuitBreakerSnapshot),
	}
	cutoff := h.now().Add(-recentWindow)

	h.mu.Lock()
	stats.TotalErrors = len(h.log)
	for _, ec := range h.log {
		stats.CategoryDistribution[ec.Category]++
		stats.SeverityDistribution[ec.Severity]++
		stats.ComponentDistribution[ec.Component]++
		if !ec.Timestamp.Before(cutoff) {
			stats.RecentErrors1h++
		}
	}
	breakers := make(map[string]*resilience.CircuitBreaker, len(h.breakers))
	for name, cb := range h.breakers {
		breakers[name] = cb
	}
	h.mu.Unlock()

	stats.ErrorRate1h = float64(stats.RecentErrors1h) / recentWindow.Minutes()
	for name, cb := range breakers {
		stats.CircuitBreakers[name] = cb.Snapshot()
	}
	return stats
}

// ErrorLog returns copies of the logged error contexts, oldest first.
func (h *ErrorHandler) ErrorLog() []faults.ErrorContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]faults.ErrorContext, len(h.log))
	for i, ec := range h.log {
		out[i] = ec.Clone()
	}
	return out
}

// ClearErrorLog drops every logged error.
func (h *ErrorHandler) ClearErrorLog() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = nil
}

type errorLogExport struct {
	ExportTime  time.Time             `json:"export_time"`
	TotalErrors int                   `json:"total_errors"`
	Errors      []faults.ErrorContext `json:"errors"`
}

// ExportErrorLog writes the error log to w as an indented JSON document.
func (h *ErrorHandler) ExportErrorLog(w io.Writer) error {
	entries := h.ErrorLog()
	doc := errorLogExport{
		ExportTime:  h.now(),
		TotalErrors: len(entries),
		Errors:      entries,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("recovery: export error log: %w", err)
	}
	return nil
}

// ExportErrorLogFile writes the error log to path, replacing the file.
func (h *ErrorHandler) ExportErrorLogFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recovery: export error log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("recovery: export error log: %w", cerr)
		}
	}()
	return h.ExportErrorLog(f)
}
