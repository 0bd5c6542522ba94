// Package engine is the registry of runnable agents and the single entry
// point transports use to execute them.
//
// # Core Responsibilities
//
// Agent Management:
//   - Thread-safe agent registry with name-based lookup
//   - One runner.Runner per registered agent
//
// Request Handling:
//   - Default provider / model substitution
//   - Provider validation before any output is produced
//   - AgentNotFoundError listing the available agents
//
// Execution:
//   - Stream: drives stream.Adapter and yields serialized envelopes
//   - Invoke: runs to completion and returns the final assistant text
//
// Debug mode (Config.Debug) widens the stream classifier so graph and model
// lifecycle events reach clients as debug envelopes.
package engine
