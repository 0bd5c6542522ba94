// Package core provides the foundational domain types shared by the workflow
// engine, the agents and the streaming layer. It defines:
//
//   - Messages (role-based content built from a closed set of Parts)
//   - ConversationState (the value threaded through every workflow step)
//   - RawEvents (typed lifecycle events produced while a workflow runs)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - StepLimiter (bounded step execution per run)
//
// The package keeps implementation concerns (model providers, graph execution,
// transport) out of scope and exposes small interfaces so that agents and the
// stream adapter only depend on these types.
package core
