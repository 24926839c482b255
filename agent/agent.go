package agent

import (
	"context"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/recovery"
)

// Agent is one analysis step.
type Agent interface {
	ID() string
	Run(ctx context.Context, input any) (any, error)
}

// Func adapts a function to the Agent interface.
type Func struct {
	id string
	fn func(ctx context.Context, input any) (any, error)
}

// NewFunc creates an Agent with the given id.
func NewFunc(id string, fn func(ctx context.Context, input any) (any, error)) *Func {
	return &Func{id: id, fn: fn}
}

// ID implements Agent.
func (f *Func) ID() string { return f.id }

// Run implements Agent.
func (f *Func) Run(ctx context.Context, input any) (any, error) {
	return f.fn(ctx, input)
}

// Task pairs an agent with its input.
type Task struct {
	Agent Agent
	Input any
}

// Outcome is the result of running one agent.
type Outcome struct {
	AgentID string `json:"agent_id"`
	Value   any    `json:"value,omitempty"`

	// Resolution is set when the ErrorHandler handled a failure.
	Resolution recovery.Resolution `json:"resolution"`

	Err      error         `json:"-"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the agent produced a value of its own.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Resolution.Action == faults.ActionNone
}

// Recovered reports whether a failure was resolved without an error.
func (o Outcome) Recovered() bool {
	return o.Err == nil && o.Resolution.Action != faults.ActionNone
}

// Skipped reports whether the agent was skipped after failing.
func (o Outcome) Skipped() bool {
	return o.Err == nil && o.Resolution.Action == faults.ActionSkip
}
