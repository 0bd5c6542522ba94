package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/logging"
)

// ErrAdapterUsed is returned when Run is called more than once.
var ErrAdapterUsed = errors.New("adapter already used")

// Workflow is the event source driven by an Adapter. A fatal error is sent on
// the error channel before the event channel closes.
type Workflow interface {
	Start(ctx context.Context, runID, threadID string, state core.ConversationState) (<-chan core.RawEvent, <-chan error)
}

// Message is one inbound chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the client input of one streamed run.
type Request struct {
	Provider string
	Model    string
	Messages []Message
	Config   map[string]any
}

// State is the lifecycle phase of an Adapter.
type State int

const (
	StateInit State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	Classifier *Classifier
	Formatter  *Formatter
	Logger     logging.Logger
	// NewID generates run and thread identifiers.
	NewID func() string
}

// Adapter drives one workflow run and turns its raw events into serialized
// envelopes. An Adapter serves a single run.
type Adapter struct {
	workflow   Workflow
	classifier *Classifier
	formatter  *Formatter
	logger     logging.Logger
	newID      func() string

	mu    sync.Mutex
	state State
}

// NewAdapter creates an Adapter for workflow.
func NewAdapter(workflow Workflow, optFns ...func(o *AdapterOptions)) *Adapter {
	opts := AdapterOptions{
		Logger: logging.NoOpLogger{},
		NewID:  core.NewID,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Classifier == nil {
		opts.Classifier = NewClassifier()
	}
	if opts.Formatter == nil {
		debug := opts.Classifier.Debug()
		opts.Formatter = NewFormatter(func(o *FormatterOptions) { o.Debug = debug })
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Adapter{
		workflow:   workflow,
		classifier: opts.Classifier,
		formatter:  opts.Formatter,
		logger:     opts.Logger,
		newID:      opts.NewID,
	}
}

// State returns the current lifecycle phase.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) transition(from, to State) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != from {
		return false
	}
	a.state = to
	return true
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run executes the workflow and yields each serialized envelope in order.
// The stream opens with chat_start and closes with chat_end, or with a single
// error envelope when the workflow fails. If yield fails or ctx is done the
// workflow is cancelled and the cause is returned without further envelopes.
func (a *Adapter) Run(ctx context.Context, req Request, yield func([]byte) error) error {
	if !a.transition(StateInit, StateRunning) {
		return ErrAdapterUsed
	}

	state := BuildState(req)
	runID := a.newID()
	threadID := ThreadIDFrom(req.Config)
	if threadID == "" {
		threadID = a.newID()
	}

	logger := logging.With(a.logger, "run_id", runID, "thread_id", threadID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fail := func(err error) error {
		a.setState(StateFailed)
		return err
	}

	emit := func(ev *StreamEvent) error {
		data, err := ev.Marshal()
		if err != nil {
			logger.Warn("stream.encode.failed", "type", string(ev.Event.Type), "error", err.Error())

			data, err = a.formatter.Error(fmt.Sprintf("failed to encode %s event: %v", ev.Event.Type, err), runID, threadID).Marshal()
			if err != nil {
				return err
			}
		}
		return yield(data)
	}

	logger.Debug("stream.run.start", "messages", len(state.Messages))

	start := a.formatter.Synthetic(EventChatStart, "", map[string]any{"message_count": len(state.Messages)}, runID, threadID)
	if err := emit(start); err != nil {
		return fail(fmt.Errorf("write chat_start: %w", err))
	}

	events, errs := a.workflow.Start(ctx, runID, threadID, state)

	forwarded := 0

pump:
	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		case ev, ok := <-events:
			if !ok {
				break pump
			}
			if !a.classifier.ShouldForward(ev) {
				continue
			}
			out := a.formatter.Format(ev, runID, threadID)
			if out == nil {
				continue
			}
			if err := emit(out); err != nil {
				logger.Info("stream.client.gone", "error", err.Error())
				return fail(err)
			}
			forwarded++
		}
	}

	if err := <-errs; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}

		logger.Error("stream.run.failed", "error", err.Error(), "forwarded", forwarded)

		if yerr := emit(a.formatter.Error(err.Error(), runID, threadID)); yerr != nil {
			logger.Warn("stream.error_event.write_failed", "error", yerr.Error())
		}
		return fail(err)
	}

	if err := emit(a.formatter.Synthetic(EventChatEnd, "", nil, runID, threadID)); err != nil {
		return fail(fmt.Errorf("write chat_end: %w", err))
	}

	a.setState(StateDone)
	logger.Debug("stream.run.done", "forwarded", forwarded)

	return nil
}

// BuildState maps an inbound request onto the initial ConversationState.
func BuildState(req Request) core.ConversationState {
	msgs := make([]core.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, core.NewTextMessage(core.ParseRole(m.Role), m.Content))
	}
	return core.NewConversationState(req.Provider, req.Model, msgs)
}

// ThreadIDFrom returns the trimmed "thread_id" string of a request config,
// or "" when it is absent or not a string.
func ThreadIDFrom(cfg map[string]any) string {
	if cfg == nil {
		return ""
	}
	id, _ := cfg["thread_id"].(string)
	return strings.TrimSpace(id)
}
