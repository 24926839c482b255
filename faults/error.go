package faults

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Error is the tagged error variant used throughout the toolkit.
type Error struct {
	kind  Kind
	ctx   *ErrorContext
	cause error

	// occurrence marks an error made by Occurrence; it reports the message
	// of the error it wraps.
	occurrence bool
}

// Option configures an Error under construction.
type Option func(*Error)

// WithCategory overrides the category.
func WithCategory(c Category) Option {
	return func(e *Error) { e.ctx.Category = c }
}

// WithSeverity overrides the severity.
func WithSeverity(s Severity) Option {
	return func(e *Error) { e.ctx.Severity = s }
}

// WithComponent overrides the component name.
func WithComponent(component string) Option {
	return func(e *Error) { e.ctx.Component = component }
}

// WithOperation sets the operation name.
func WithOperation(op string) Option {
	return func(e *Error) { e.ctx.Operation = op }
}

// WithWorkflowID sets the workflow id.
func WithWorkflowID(id string) Option {
	return func(e *Error) { e.ctx.WorkflowID = id }
}

// WithAgentID sets the agent id.
func WithAgentID(id string) Option {
	return func(e *Error) { e.ctx.AgentID = id }
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) Option {
	return func(e *Error) {
		if n >= 0 {
			e.ctx.MaxRetries = n
		}
	}
}

// WithRecoveryAction presets the recovery hint.
func WithRecoveryAction(a RecoveryAction) Option {
	return func(e *Error) { e.ctx.RecoveryAction = a }
}

// WithContextData adds key/value pairs to the context data.
func WithContextData(data map[string]any) Option {
	return func(e *Error) {
		if len(data) == 0 {
			return
		}
		if e.ctx.ContextData == nil {
			e.ctx.ContextData = make(map[string]any, len(data))
		}
		for k, v := range data {
			e.ctx.ContextData[k] = v
		}
	}
}

// WithStackTrace records a stack trace.
func WithStackTrace(trace string) Option {
	return func(e *Error) { e.ctx.StackTrace = trace }
}

// WithUpstream records the ids of errors that led to this one.
func WithUpstream(ids ...string) Option {
	return func(e *Error) { e.ctx.UpstreamErrors = append(e.ctx.UpstreamErrors, ids...) }
}

// WithCause sets the wrapped error.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// New creates a system error with category unknown and severity medium.
func New(message string, opts ...Option) *Error {
	return build(KindSystem, message, CategoryUnknown, SeverityMedium, "", opts)
}

// Wrap creates a system error that wraps cause.
func Wrap(cause error, message string, opts ...Option) *Error {
	return build(KindSystem, message, CategoryUnknown, SeverityMedium, "", append([]Option{WithCause(cause)}, opts...))
}

// Occurrence returns a new error recording one occurrence of err. Its
// context is a copy of err's context with a fresh id and timestamp, so
// per-call bookkeeping such as RetryCount or AgentID never touches an error
// value that other goroutines may hold. A non-faults err gets a new system
// context. The result wraps err and reports err's message.
func Occurrence(err error, opts ...Option) *Error {
	var e *Error
	if fe, ok := As(err); ok {
		ec := fe.ctx.Clone()
		ec.ErrorID = uuid.NewString()
		ec.Timestamp = time.Now()
		e = &Error{kind: fe.kind, ctx: &ec}
	} else {
		e = build(KindSystem, err.Error(), classifyCategory(err), SeverityMedium, "", nil)
	}
	e.cause = err
	e.occurrence = true
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func build(kind Kind, message string, cat Category, sev Severity, component string, opts []Option) *Error {
	e := &Error{
		kind: kind,
		ctx: &ErrorContext{
			ErrorID:      uuid.NewString(),
			Timestamp:    time.Now(),
			ErrorType:    kind.typeName(),
			ErrorMessage: message,
			Category:     cat,
			Severity:     sev,
			Component:    component,
			MaxRetries:   DefaultMaxRetries,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.occurrence {
		return e.cause.Error()
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.ctx.ErrorMessage, e.cause)
	}
	return e.ctx.ErrorMessage
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the variant tag.
func (e *Error) Kind() Kind { return e.kind }

// Context returns the error's context. The pointer is shared; treat the
// result as read-only outside the recovery package.
func (e *Error) Context() *ErrorContext { return e.ctx }

// Category returns the error category.
func (e *Error) Category() Category { return e.ctx.Category }

// Severity returns the error severity.
func (e *Error) Severity() Severity { return e.ctx.Severity }

// Component returns the failing component.
func (e *Error) Component() string { return e.ctx.Component }
