// Package parallel fans work out across goroutines with explicit
// concurrency ceilings.
//
// [BatchProcessor] splits items into fixed-size batches, processes each batch
// sequentially and runs a bounded number of batches at once. Item failures
// never abort the run; an optional error handler may substitute a fallback
// value. Results come back in input order.
//
// The package functions cover the remaining fan-out shapes:
//
//   - [GatherWithTimeout] runs every function and fails the whole group on
//     timeout.
//   - [Race] returns the first function to finish and hands the rest back as
//     [Pending].
//   - [Map] applies a function to every item, order-preserving and bounded.
//   - [StaggeredStart] spaces out start times to avoid a thundering herd.
//   - [RunBlocking] moves blocking or CPU-bound work onto a [BlockingPool].
//
// Every function honors context cancellation.
package parallel
