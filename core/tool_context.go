package core

import (
	"context"

	"github.com/hupe1980/genui/logging"
)

// ToolContext provides a constrained surface for tool implementations
// invoked by an agent. Tools see the run identifiers and a logger but cannot
// emit events or touch the conversation state directly.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	logger         logging.Logger
}

// NewToolContext constructs a tool context bound to a parent RunContext
// and unique functionCallID.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		logger:         logging.With(runCtx.Logger(), "function_call_id", functionCallID),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// ThreadID returns the thread ID associated with the tool invocation.
func (tc *ToolContext) ThreadID() string { return tc.runCtx.ThreadID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.runCtx.AgentName() }
