// Package agent runs analysis agents under the shared concurrency and
// recovery machinery.
//
// A Runner executes each agent inside its own resilience.Executor (semaphore
// pool, optional circuit breaker, per-run timeout, observer) and routes
// failures through a recovery.ErrorHandler. When the handler answers retry,
// the agent is run again after a backoff delay, with the retry count carried
// on the error context so handlers such as recovery.AgentFailureHandler can
// move from retry to skip or fail_fast.
//
// RunAll fans tasks out with parallel.Map. One agent's failure never aborts
// the others; every task gets an Outcome, in input order.
package agent
