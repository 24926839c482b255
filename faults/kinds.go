package faults

import (
	"fmt"
	"time"
)

// maxValueLen bounds the validation value recorded in context data.
const maxValueLen = 100

// AgentExecution reports a failed agent run.
func AgentExecution(agentID, message string, opts ...Option) *Error {
	base := []Option{WithAgentID(agentID), WithContextData(map[string]any{"agent_id": agentID})}
	return build(KindAgentExecution, message, CategoryAgentFailure, SeverityMedium,
		"agent_"+agentID, append(base, opts...))
}

// LLMAPI reports a failed call to a language model endpoint.
func LLMAPI(message, endpoint string, opts ...Option) *Error {
	var base []Option
	if endpoint != "" {
		base = append(base, WithContextData(map[string]any{"api_endpoint": endpoint}))
	}
	return build(KindLLMAPI, message, CategoryLLMAPIFailure, SeverityMedium,
		"llm_client", append(base, opts...))
}

// WorkflowTimeout reports a workflow that ran past its deadline.
func WorkflowTimeout(workflowID string, timeout time.Duration, opts ...Option) *Error {
	base := []Option{
		WithWorkflowID(workflowID),
		WithContextData(map[string]any{"workflow_id": workflowID, "timeout_seconds": timeout.Seconds()}),
	}
	msg := fmt.Sprintf("workflow %s timed out after %s", workflowID, timeout)
	return build(KindWorkflowTimeout, msg, CategoryTimeoutError, SeverityMedium,
		"workflow_orchestrator", append(base, opts...))
}

// DataValidation reports input that failed validation. The offending value is
// recorded as text truncated to 100 characters.
func DataValidation(field string, value any, message string, opts ...Option) *Error {
	data := map[string]any{}
	if field != "" {
		data["field"] = field
	}
	if value != nil {
		s := fmt.Sprint(value)
		if r := []rune(s); len(r) > maxValueLen {
			s = string(r[:maxValueLen])
		}
		data["value"] = s
	}
	return build(KindDataValidation, message, CategoryValidation, SeverityMedium,
		"data_validator", append([]Option{WithContextData(data)}, opts...))
}

// ResourceExhaustion reports a depleted resource such as memory or a pool.
func ResourceExhaustion(resourceType string, usage float64, opts ...Option) *Error {
	msg := fmt.Sprintf("resource %s exhausted (usage %.2f)", resourceType, usage)
	base := []Option{WithContextData(map[string]any{"resource_type": resourceType, "current_usage": usage})}
	return build(KindResourceExhaustion, msg, CategoryResourceError, SeverityHigh,
		"resource_manager", append(base, opts...))
}

// Timeout reports an operation that exceeded its deadline.
func Timeout(operation, message string, opts ...Option) *Error {
	if message == "" {
		message = "operation timed out"
	}
	msg := message
	if operation != "" {
		msg = fmt.Sprintf("%s: %s", message, operation)
	}
	return build(KindTimeout, msg, CategoryTimeoutError, SeverityMedium,
		"", append([]Option{WithOperation(operation)}, opts...))
}

// CircuitOpen reports a call rejected by an open circuit breaker.
func CircuitOpen(component string, opts ...Option) *Error {
	if component == "" {
		component = "circuit_breaker"
	}
	msg := fmt.Sprintf("circuit breaker open for %s", component)
	return build(KindCircuitOpen, msg, CategoryNetworkError, SeverityHigh,
		component, append([]Option{WithRecoveryAction(ActionFallback)}, opts...))
}

// Escalated wraps orig in a new critical error that records orig's id as
// upstream and copies its category, component and context data.
func Escalated(orig error, ec *ErrorContext) *Error {
	opts := []Option{
		WithCause(orig),
		WithSeverity(SeverityCritical),
		WithOperation(ec.Operation),
		WithWorkflowID(ec.WorkflowID),
		WithAgentID(ec.AgentID),
		WithContextData(ec.ContextData),
		WithContextData(map[string]any{"original_error_id": ec.ErrorID}),
		WithUpstream(ec.ErrorID),
	}
	msg := fmt.Sprintf("escalated %s in %s", ec.Category, ec.Component)
	return build(KindEscalated, msg, ec.Category, SeverityCritical, ec.Component, opts)
}
