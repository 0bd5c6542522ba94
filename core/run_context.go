package core

import (
	"context"

	"github.com/hupe1980/genui/logging"
)

// RunContext carries execution state & helpers for one workflow run. It
// aggregates:
//   - The ambient cancellation Context
//   - Identifiers (RunID, ThreadID, Agent info)
//   - The emission channel raw events are published on
//   - A StepLimiter bounding the number of visited steps
//
// A RunContext is owned by exactly one run and is not shared across requests.
type RunContext struct {
	Context  context.Context
	RunID    string
	ThreadID string
	Agent    AgentInfo
	Emit     chan<- RawEvent
	Limiter  *StepLimiter

	logger logging.Logger
}

// NewRunContext constructs a RunContext. A nil logger is replaced by a NoOpLogger.
func NewRunContext(
	ctx context.Context,
	runID, threadID string,
	agent AgentInfo,
	maxSteps int,
	emit chan<- RawEvent,
	logger logging.Logger,
) *RunContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &RunContext{
		Context:  ctx,
		RunID:    runID,
		ThreadID: threadID,
		Agent:    agent,
		Emit:     emit,
		Limiter:  NewStepLimiter(maxSteps),
		logger:   logging.With(logger, "run_id", runID, "thread_id", threadID, "agent", agent.Name),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Logger returns the run-scoped logger.
func (rc *RunContext) Logger() logging.Logger { return rc.logger }

// AgentName returns the logical agent name for this run.
func (rc *RunContext) AgentName() string { return rc.Agent.Name }

// EmitEvent publishes ev, blocking until it is accepted or the run is cancelled.
// A RunContext without an emission channel silently discards events.
func (rc *RunContext) EmitEvent(ev RawEvent) error {
	if rc.Emit == nil {
		return rc.Context.Err()
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
		return nil
	}
}

// WithContext returns a shallow copy bound to ctx.
func (rc *RunContext) WithContext(ctx context.Context) *RunContext {
	c := *rc
	c.Context = ctx
	return &c
}
