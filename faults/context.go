package faults

import (
	"maps"
	"time"
)

// DefaultMaxRetries is the retry budget assigned to new error contexts.
const DefaultMaxRetries = 3

// ErrorContext describes a single failure.
//
// Only RetryCount and RecoveryAction change after creation; the recovery
// package mutates them while holding its own lock.
type ErrorContext struct {
	ErrorID        string         `json:"error_id"`
	Timestamp      time.Time      `json:"timestamp"`
	ErrorType      string         `json:"error_type"`
	ErrorMessage   string         `json:"error_message"`
	Category       Category       `json:"category"`
	Severity       Severity       `json:"severity"`
	Component      string         `json:"component"`
	Operation      string         `json:"operation"`
	WorkflowID     string         `json:"workflow_id,omitempty"`
	AgentID        string         `json:"agent_id,omitempty"`
	RetryCount     int            `json:"retry_count"`
	MaxRetries     int            `json:"max_retries"`
	RecoveryAction RecoveryAction `json:"recovery_action,omitempty"`
	ContextData    map[string]any `json:"context_data,omitempty"`
	StackTrace     string         `json:"stack_trace,omitempty"`
	UpstreamErrors []string       `json:"upstream_errors,omitempty"`
}

// Clone returns a copy that shares no maps or slices with ec.
func (ec *ErrorContext) Clone() ErrorContext {
	c := *ec
	if ec.ContextData != nil {
		c.ContextData = maps.Clone(ec.ContextData)
	}
	if ec.UpstreamErrors != nil {
		c.UpstreamErrors = append([]string(nil), ec.UpstreamErrors...)
	}
	return c
}

// RetriesLeft reports whether the retry budget is not yet exhausted.
func (ec *ErrorContext) RetriesLeft() bool {
	return ec.RetryCount < ec.MaxRetries
}

// Merge copies data into ContextData without overwriting existing keys.
func (ec *ErrorContext) Merge(data map[string]any) {
	if len(data) == 0 {
		return
	}
	if ec.ContextData == nil {
		ec.ContextData = make(map[string]any, len(data))
	}
	for k, v := range data {
		if _, ok := ec.ContextData[k]; !ok {
			ec.ContextData[k] = v
		}
	}
}
