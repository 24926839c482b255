// Package health reports whether the agent pipeline can take work.
//
// A [Checker] reports a [Status]: healthy, degraded or unhealthy. The
// [Aggregator] runs registered checkers concurrently under a shared deadline
// and folds their results into one status, worst first.
//
// Checkers provided here:
//
//   - [ResilienceChecker] reads recovery.ErrorHandler statistics: open
//     circuit breakers and an error rate above one per minute degrade the
//     service; more than five per minute or any critical error makes it
//     unhealthy.
//   - [SemaphoreChecker] degrades when a concurrency pool is saturated or
//     has timed out acquisitions since the previous check.
//   - [MemoryChecker] compares heap allocation with a configured ceiling.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg, errorHandler)
//
// registers /healthz (liveness), /readyz (readiness), /health (detailed JSON)
// and /status (error statistics JSON).
package health
