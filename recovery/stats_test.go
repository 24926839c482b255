package recovery

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/resilience"
)

func seed(t *testing.T, h *ErrorHandler) {
	t.Helper()
	ctx := context.Background()
	for _, err := range []error{
		faults.AgentExecution("B1", "no themes"),
		faults.AgentExecution("B2", "empty output"),
		faults.LLMAPI("503 from upstream", "/v1/chat/completions"),
		faults.DataValidation("nps_score", 11, "out of range"),
	} {
		_, _ = h.HandleError(ctx, err, nil)
	}
}

func TestStatistics_Empty(t *testing.T) {
	h := NewErrorHandler()
	h.RegisterCircuitBreaker("llm_client", resilience.CircuitBreakerConfig{})

	stats := h.Statistics()
	if stats.TotalErrors != 0 || stats.RecentErrors1h != 0 || stats.ErrorRate1h != 0 {
		t.Errorf("Statistics() = %+v, want zero counts", stats)
	}
	snap, ok := stats.CircuitBreakers["llm_client"]
	if !ok {
		t.Fatal("circuit breaker snapshot missing from empty statistics")
	}
	if snap.State != resilience.StateClosed {
		t.Errorf("State = %v, want closed", snap.State)
	}
}

func TestStatistics_Distributions(t *testing.T) {
	h := NewErrorHandler()
	seed(t, h)

	stats := h.Statistics()
	if stats.TotalErrors != 4 {
		t.Errorf("TotalErrors = %d, want 4", stats.TotalErrors)
	}
	if stats.RecentErrors1h != 4 {
		t.Errorf("RecentErrors1h = %d, want 4", stats.RecentErrors1h)
	}
	if want := 4.0 / 60; stats.ErrorRate1h != want {
		t.Errorf("ErrorRate1h = %v, want %v", stats.ErrorRate1h, want)
	}
	if got := stats.CategoryDistribution[faults.CategoryAgentFailure]; got != 2 {
		t.Errorf("agent_failure count = %d, want 2", got)
	}
	if got := stats.CategoryDistribution[faults.CategoryValidation]; got != 1 {
		t.Errorf("validation_error count = %d, want 1", got)
	}
	if got := stats.SeverityDistribution[faults.SeverityMedium]; got != 4 {
		t.Errorf("medium count = %d, want 4", got)
	}
	if got := stats.ComponentDistribution["llm_client"]; got != 1 {
		t.Errorf("llm_client count = %d, want 1", got)
	}
}

func TestStatistics_RecentWindow(t *testing.T) {
	later := time.Now().Add(2 * time.Hour)
	h := NewErrorHandler(WithClock(func() time.Time { return later }))
	seed(t, h)

	stats := h.Statistics()
	if stats.TotalErrors != 4 {
		t.Errorf("TotalErrors = %d, want 4", stats.TotalErrors)
	}
	if stats.RecentErrors1h != 0 || stats.ErrorRate1h != 0 {
		t.Errorf("recent = %d rate = %v, want errors outside the window ignored", stats.RecentErrors1h, stats.ErrorRate1h)
	}
}

func TestErrorLog_CopiesAndClear(t *testing.T) {
	h := NewErrorHandler()
	seed(t, h)

	log := h.ErrorLog()
	if len(log) != 4 {
		t.Fatalf("len(ErrorLog()) = %d, want 4", len(log))
	}
	log[0].ContextData["agent_id"] = "tampered"
	if got := h.ErrorLog()[0].ContextData["agent_id"]; got != "B1" {
		t.Errorf("ErrorLog() leaked internal state: agent_id = %v", got)
	}

	h.ClearErrorLog()
	if got := len(h.ErrorLog()); got != 0 {
		t.Errorf("len(ErrorLog()) after clear = %d, want 0", got)
	}
	if got := h.Statistics().TotalErrors; got != 0 {
		t.Errorf("TotalErrors after clear = %d, want 0", got)
	}
}

func TestExportErrorLog(t *testing.T) {
	h := NewErrorHandler()
	seed(t, h)

	var buf bytes.Buffer
	if err := h.ExportErrorLog(&buf); err != nil {
		t.Fatalf("ExportErrorLog() error = %v", err)
	}

	var doc struct {
		ExportTime  time.Time        `json:"export_time"`
		TotalErrors int              `json:"total_errors"`
		Errors      []map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.TotalErrors != 4 || len(doc.Errors) != 4 {
		t.Errorf("exported %d/%d errors, want 4", doc.TotalErrors, len(doc.Errors))
	}
	if doc.ExportTime.IsZero() {
		t.Error("export_time is zero")
	}
	first := doc.Errors[0]
	for _, key := range []string{"error_id", "timestamp", "category", "severity", "component", "error_type", "error_message", "retry_count", "recovery_action"} {
		if _, ok := first[key]; !ok {
			t.Errorf("exported error missing %q", key)
		}
	}
	if first["recovery_action"] != string(faults.ActionRetry) {
		t.Errorf("recovery_action = %v, want retry", first["recovery_action"])
	}
}

func TestExportErrorLogFile(t *testing.T) {
	h := NewErrorHandler()
	seed(t, h)

	path := filepath.Join(t.TempDir(), "errors.json")
	if err := h.ExportErrorLogFile(path); err != nil {
		t.Fatalf("ExportErrorLogFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !json.Valid(data) {
		t.Error("exported file is not valid JSON")
	}

	if err := h.ExportErrorLogFile(filepath.Join(t.TempDir(), "missing", "errors.json")); err == nil {
		t.Error("ExportErrorLogFile() into a missing directory should fail")
	}
}
