package observe

import "go.opentelemetry.io/otel/attribute"

// OperationMeta identifies a guarded operation for telemetry purposes.
type OperationMeta struct {
	Component  string // Component name, e.g. "llm_client" or "agent_B4" (required)
	Operation  string // Operation within the component (optional)
	AgentID    string // Agent id when the operation belongs to an agent (optional)
	WorkflowID string // Workflow run id (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: agentops.<component>.<operation> or agentops.<component>
func (m OperationMeta) SpanName() string {
	if m.Operation != "" {
		return "agentops." + m.Component + "." + m.Operation
	}
	return "agentops." + m.Component
}

// Validate reports whether the metadata is usable.
func (m OperationMeta) Validate() error {
	if m.Component == "" {
		return ErrMissingComponent
	}
	return nil
}

func (m OperationMeta) spanAttrs() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("agentops.component", m.Component)}
	if m.Operation != "" {
		attrs = append(attrs, attribute.String("agentops.operation", m.Operation))
	}
	if m.AgentID != "" {
		attrs = append(attrs, attribute.String("agentops.agent_id", m.AgentID))
	}
	if m.WorkflowID != "" {
		attrs = append(attrs, attribute.String("agentops.workflow_id", m.WorkflowID))
	}
	return attrs
}

func (m OperationMeta) logAttrs() map[string]any {
	attrs := map[string]any{"component": m.Component}
	if m.Operation != "" {
		attrs["operation"] = m.Operation
	}
	if m.AgentID != "" {
		attrs["agent_id"] = m.AgentID
	}
	if m.WorkflowID != "" {
		attrs["workflow_id"] = m.WorkflowID
	}
	return attrs
}
