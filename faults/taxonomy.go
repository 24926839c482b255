package faults

// Category classifies what kind of failure occurred.
type Category string

const (
	CategoryAgentFailure  Category = "agent_failure"
	CategoryLLMAPIFailure Category = "llm_api_failure"
	CategoryDataError     Category = "data_error"
	CategoryNetworkError  Category = "network_error"
	CategoryTimeoutError  Category = "timeout_error"
	CategoryValidation    Category = "validation_error"
	CategoryResourceError Category = "resource_error"
	CategoryConfiguration Category = "configuration_error"
	CategoryUnknown       Category = "unknown_error"
)

// Categories lists every category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryAgentFailure,
		CategoryLLMAPIFailure,
		CategoryDataError,
		CategoryNetworkError,
		CategoryTimeoutError,
		CategoryValidation,
		CategoryResourceError,
		CategoryConfiguration,
		CategoryUnknown,
	}
}

// Severity ranks how much impact a failure has.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from least to most severe.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// RecoveryAction is the decision taken for a handled error.
type RecoveryAction string

const (
	// ActionNone means no decision has been recorded yet.
	ActionNone              RecoveryAction = ""
	ActionRetry             RecoveryAction = "retry"
	ActionFallback          RecoveryAction = "fallback"
	ActionSkip              RecoveryAction = "skip"
	ActionFailFast          RecoveryAction = "fail_fast"
	ActionDegradeGracefully RecoveryAction = "degrade_gracefully"
	ActionEscalate          RecoveryAction = "escalate"
)

// Kind discriminates the variants of Error.
type Kind string

const (
	KindSystem             Kind = "system"
	KindAgentExecution     Kind = "agent_execution"
	KindLLMAPI             Kind = "llm_api"
	KindWorkflowTimeout    Kind = "workflow_timeout"
	KindDataValidation     Kind = "data_validation"
	KindResourceExhaustion Kind = "resource_exhaustion"
	KindTimeout            Kind = "timeout"
	KindCircuitOpen        Kind = "circuit_open"
	KindEscalated          Kind = "escalated"
)

// typeName is the ErrorType recorded in contexts built for each kind.
func (k Kind) typeName() string {
	switch k {
	case KindAgentExecution:
		return "AgentExecutionError"
	case KindLLMAPI:
		return "LLMAPIError"
	case KindWorkflowTimeout:
		return "WorkflowTimeoutError"
	case KindDataValidation:
		return "DataValidationError"
	case KindResourceExhaustion:
		return "ResourceExhaustionError"
	case KindTimeout:
		return "TimeoutError"
	case KindCircuitOpen:
		return "CircuitOpenError"
	case KindEscalated:
		return "EscalatedError"
	default:
		return "SystemError"
	}
}
