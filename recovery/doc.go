// Package recovery classifies failures and carries out recovery actions.
//
// An [ErrorHandler] owns three registries: handler functions per error
// category, a fallback per component and a circuit breaker per component. It
// also keeps an in-memory log of every error it handled. HandleError picks a
// [faults.RecoveryAction] for an error and executes it:
//
//   - retry: consumes one unit of the error's retry budget, escalating once
//     the budget is spent
//   - fallback: runs the component's registered fallback
//   - skip: resolves with no value
//   - degrade_gracefully: resolves with a [DegradedResponse]
//   - fail_fast: returns the original error
//   - escalate: returns a critical error wrapping the original
//
// Validation errors always fail fast and critical errors never retry,
// whatever the registered handlers say.
//
// [Resilient] and [Operation] put retry with exponential backoff and an
// optional circuit breaker around a function and route its terminal failure
// through an ErrorHandler.
package recovery
