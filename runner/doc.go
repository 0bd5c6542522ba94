// Package runner executes one agent workflow per request.
//
// The Runner creates the per-run context (identifiers, emission channel and
// step limiter), starts the agent on its own goroutine and exposes the raw
// event stream consumed by the streaming layer.
//
// # Responsibilities
//   - Asynchronous streaming runs (Start) and a synchronous helper (Invoke)
//   - Fatal error delivery ahead of event channel closure
//   - Run lifecycle tracking & cancellation
//
// See runner.go for the operational implementation details.
package runner
