package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/logging"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for raw events.
	EventBufferSize int
	// MaxSteps limits the number of workflow steps per run.
	MaxSteps int
	// Logger provides structured logging.
	Logger logging.Logger
}

// Runner drives one agent: it creates run contexts, starts the workflow on
// its own goroutine and hands back the raw event stream. Public methods are
// safe for concurrent use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxSteps        int
	logger          logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		MaxSteps:        core.DefaultMaxSteps,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxSteps:        opts.MaxSteps,
		logger:          opts.Logger,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// Agent returns the agent driven by this runner.
func (r *Runner) Agent() core.Agent { return r.agent }

// Start launches the workflow asynchronously. The events channel is closed
// when the run ends. A fatal error is delivered on the error channel before
// the events channel closes; both channels are closed afterwards.
func (r *Runner) Start(
	ctx context.Context,
	runID, threadID string,
	state core.ConversationState,
) (<-chan core.RawEvent, <-chan error) {
	eventsCh := make(chan core.RawEvent, r.eventBufferSize)
	errorsCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	r.track(runID, cancel)

	runCtx := core.NewRunContext(ctx, runID, threadID, r.agentInfo(), r.maxSteps, eventsCh, r.logger)

	go func() {
		defer func() {
			r.untrack(runID)
			cancel()
			close(eventsCh)
			close(errorsCh)
		}()

		if _, err := r.runAgent(runCtx, state); err != nil {
			errorsCh <- err
		}
	}()

	return eventsCh, errorsCh
}

// Invoke runs the workflow synchronously, discarding raw events, and returns
// the final state.
func (r *Runner) Invoke(
	ctx context.Context,
	runID, threadID string,
	state core.ConversationState,
) (core.ConversationState, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.track(runID, cancel)
	defer r.untrack(runID)

	runCtx := core.NewRunContext(ctx, runID, threadID, r.agentInfo(), r.maxSteps, nil, r.logger)

	return r.runAgent(runCtx, state)
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// ActiveRuns returns the number of runs in flight.
func (r *Runner) ActiveRuns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.activeRuns)
}

func (r *Runner) runAgent(runCtx *core.RunContext, state core.ConversationState) (final core.ConversationState, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("agent %s panicked: %v", r.agent.Name(), rec)
		}
		if err != nil {
			runCtx.Logger().Error("runner.run.failed", "error", err.Error())
		}
	}()

	runCtx.Logger().Debug("runner.run.start", "messages", len(state.Messages))

	final, err = r.agent.Run(runCtx, state)
	if err != nil {
		return final, fmt.Errorf("agent execution failed: %w", err)
	}

	runCtx.Logger().Debug("runner.run.done", "steps", len(final.Steps))

	return final, nil
}

func (r *Runner) agentInfo() core.AgentInfo {
	if d, ok := r.agent.(interface{ Info() core.AgentInfo }); ok {
		return d.Info()
	}
	return core.AgentInfo{Name: r.agent.Name(), Type: "workflow"}
}

func (r *Runner) track(runID string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()
}

func (r *Runner) untrack(runID string) {
	r.mu.Lock()
	delete(r.activeRuns, runID)
	r.mu.Unlock()
}
