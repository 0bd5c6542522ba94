package core

// Agent defines the interface every workflow agent implements.
//
// An agent is a named workflow bound to role-specific prompts. Run drives the
// workflow from the initial state to its terminal state, publishing raw events
// through the RunContext as it goes, and returns the final state.
//
// Implementations must:
//   - Respect RunContext cancellation
//   - Treat the incoming state as a value and return a new one
//   - Return an error for any failure that must end the run
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext, state ConversationState) (ConversationState, error)
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "report").
type AgentInfo struct{ Name, Type string }
