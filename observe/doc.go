// Package observe provides observability primitives for resilient operations.
//
// It is a pure instrumentation library: structured JSON logging, OpenTelemetry
// spans and metrics keyed by [OperationMeta]. The resilience package plugs a
// [Middleware] into its executor; every other package only depends on the
// [Logger] interface.
//
// Log entries written inside a span carry its trace and span ids. Fields
// built with [Err] from a faults error also carry the error id, category and
// severity, so a response's error id leads straight to the log line. Prompts,
// survey comments and credentials are redacted by key.
package observe
