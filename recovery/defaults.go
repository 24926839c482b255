package recovery

import (
	"slices"
	"strings"

	"github.com/jonwraymond/agentops/faults"
)

// LLMFailureHandler picks an action for LLM API failures from the error
// message: rate limits, quota and timeouts retry, authentication failures
// fail fast and anything else falls back.
func LLMFailureHandler(ec faults.ErrorContext) faults.RecoveryAction {
	msg := strings.ToLower(ec.ErrorMessage)
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"):
		return faults.ActionRetry
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "unauthorized"):
		return faults.ActionFailFast
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return faults.ActionRetry
	default:
		return faults.ActionFallback
	}
}

// AgentFailureHandler returns a handler for agent failures. Agents listed in
// critical are retried twice and then fail fast; other agents are retried
// once and then skipped.
func AgentFailureHandler(critical ...string) HandlerFunc {
	critical = slices.Clone(critical)
	return func(ec faults.ErrorContext) faults.RecoveryAction {
		if slices.Contains(critical, ec.AgentID) {
			if ec.RetryCount < 2 {
				return faults.ActionRetry
			}
			return faults.ActionFailFast
		}
		if ec.RetryCount >= 1 {
			return faults.ActionSkip
		}
		return faults.ActionRetry
	}
}

// InstallDefaults registers LLMFailureHandler and an AgentFailureHandler for
// the given critical agents on h.
func InstallDefaults(h *ErrorHandler, critical ...string) {
	h.RegisterErrorHandler(faults.CategoryLLMAPIFailure, LLMFailureHandler)
	h.RegisterErrorHandler(faults.CategoryAgentFailure, AgentFailureHandler(critical...))
}
