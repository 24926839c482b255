// Package faults defines the error taxonomy shared by the resilience,
// parallel and recovery packages.
//
// Every failure that flows through the toolkit can be described by an
// [ErrorContext]: a unique id, a [Category], a [Severity], the component and
// operation that failed, retry bookkeeping and free-form context data.
// [Error] is the tagged error variant carrying that context. Its [Kind]
// discriminates the specialised constructors (agent execution, LLM API,
// workflow timeout, data validation, resource exhaustion and so on).
//
// Errors produced elsewhere are described with [Classify], which returns the
// context of a wrapped *Error or builds a new one from the error's shape.
//
//	err := faults.AgentExecution("B4", "sentiment pass failed", faults.WithCause(cause))
//	var fe *faults.Error
//	if errors.As(err, &fe) {
//	    log.Printf("%s %s %s", fe.Context().ErrorID, fe.Category(), fe.Context().Component)
//	}
package faults
