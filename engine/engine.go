package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/logging"
	"github.com/hupe1980/genui/model/provider"
	"github.com/hupe1980/genui/runner"
	"github.com/hupe1980/genui/stream"
)

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := Config{
//	    Debug:           true,
//	    MaxSteps:        25,
//	    EventBufferSize: 256,
//	}
type Config struct {
	// Debug forwards the debug-only raw events (graph and model lifecycle)
	// to clients as debug envelopes.
	Debug bool

	// DebugKinds overrides the kinds forwarded in debug mode. Nil keeps
	// stream.DefaultDebugKinds.
	DebugKinds []core.EventKind

	// MaxSteps bounds the number of workflow steps per run.
	MaxSteps int

	// EventBufferSize sets the channel buffer size between workflow and
	// stream adapter.
	EventBufferSize int

	// DefaultProvider and DefaultModel fill requests that omit them.
	DefaultProvider string
	DefaultModel    string
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	MaxSteps:        core.DefaultMaxSteps,
	EventBufferSize: 100,
	DefaultProvider: "openai",
	DefaultModel:    "gpt-4o",
}

// ProviderSet reports which model providers are available. *provider.Registry
// satisfies it.
type ProviderSet interface {
	Has(name string) bool
	Names() []string
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	Config Config

	// Providers validates provider names before a run starts. Nil accepts any.
	Providers ProviderSet

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// AgentInfo describes a registered agent.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const noResponse = "No response generated"

// Result is the outcome of a non-streaming run.
type Result struct {
	RunID        string
	ThreadID     string
	Content      string
	FinishReason string
	State        core.ConversationState
}

// Engine is the agent registry and the entry point for runs.
//
// Core Responsibilities:
//   - Agent Registry: Thread-safe registration and lookup of named agents
//   - Request normalization: default provider/model and provider validation
//   - Streaming runs through stream.Adapter and synchronous runs through runner.Runner
//
// Concurrency Model:
//   - Thread-safe agent registration and lookup via RWMutex
//   - One runner per agent; one goroutine and one adapter per run
//
// Lookup failures are reported before any output is produced so transports
// can still answer with a regular status code.
type Engine struct {
	config     Config
	providers  ProviderSet
	logger     logging.Logger
	classifier *stream.Classifier

	agents map[string]*runner.Runner
	mu     sync.RWMutex
}

// New creates a new Engine instance with sensible defaults and optional configuration.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cfg := opts.Config
	classifier := stream.NewClassifier(func(o *stream.ClassifierOptions) {
		o.Debug = cfg.Debug
		if cfg.DebugKinds != nil {
			o.DebugKinds = cfg.DebugKinds
		}
	})

	return &Engine{
		config:     cfg,
		providers:  opts.Providers,
		logger:     opts.Logger,
		classifier: classifier,
		agents:     make(map[string]*runner.Runner),
	}
}

// Register adds an agent to the engine's registry, replacing any agent with
// the same name.
func (e *Engine) Register(a core.Agent) {
	r := runner.New(a, func(o *runner.Options) {
		o.EventBufferSize = e.config.EventBufferSize
		o.MaxSteps = e.config.MaxSteps
		o.Logger = e.logger
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.agents[a.Name()] = r
}

// GetAgent retrieves a registered agent by name.
func (e *Engine) GetAgent(name string) (core.Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.agents[name]
	if !ok {
		return nil, false
	}
	return r.Agent(), true
}

// Agents returns the registered agents sorted by name.
func (e *Engine) Agents() []AgentInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]AgentInfo, 0, len(e.agents))
	for _, r := range e.agents {
		a := r.Agent()
		infos = append(infos, AgentInfo{Name: a.Name(), Description: a.Description()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// AgentNames returns the registered agent names sorted alphabetically.
func (e *Engine) AgentNames() []string {
	infos := e.Agents()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// Providers returns the available provider names.
func (e *Engine) Providers() []string {
	if e.providers == nil {
		return nil
	}
	return e.providers.Names()
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Cancel stops the run with runID on whichever agent executes it.
func (e *Engine) Cancel(runID string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, r := range e.agents {
		if err := r.Cancel(runID); err == nil {
			return nil
		}
	}
	return fmt.Errorf("run %s not found", runID)
}

// Prepare resolves the agent and normalizes req. It fails with
// *AgentNotFoundError or provider.ErrUnknownProvider.
func (e *Engine) Prepare(agentName string, req stream.Request) (*runner.Runner, stream.Request, error) {
	e.mu.RLock()
	r, ok := e.agents[agentName]
	e.mu.RUnlock()

	if !ok {
		return nil, req, &AgentNotFoundError{Name: agentName, Available: e.AgentNames()}
	}

	req.Provider = strings.TrimSpace(req.Provider)
	if req.Provider == "" {
		req.Provider = e.config.DefaultProvider
	}
	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		req.Model = e.config.DefaultModel
	}

	if e.providers != nil && !e.providers.Has(req.Provider) {
		return nil, req, fmt.Errorf("%w: %q (available: %s)", provider.ErrUnknownProvider, req.Provider, strings.Join(e.providers.Names(), ", "))
	}

	return r, req, nil
}

// Stream runs agentName and yields each serialized envelope. Errors from
// Prepare are returned before yield is called.
func (e *Engine) Stream(ctx context.Context, agentName string, req stream.Request, yield func([]byte) error) error {
	r, req, err := e.Prepare(agentName, req)
	if err != nil {
		return err
	}

	adapter := stream.NewAdapter(r, func(o *stream.AdapterOptions) {
		o.Classifier = e.classifier
		o.Formatter = stream.NewFormatter(func(fo *stream.FormatterOptions) { fo.Debug = e.config.Debug })
		o.Logger = logging.With(e.logger, "agent", agentName)
	})

	return adapter.Run(ctx, req, yield)
}

// Invoke runs agentName to completion and returns the final assistant text.
func (e *Engine) Invoke(ctx context.Context, agentName string, req stream.Request) (*Result, error) {
	r, req, err := e.Prepare(agentName, req)
	if err != nil {
		return nil, err
	}

	runID := core.NewID()
	threadID := stream.ThreadIDFrom(req.Config)
	if threadID == "" {
		threadID = core.NewID()
	}

	final, err := r.Invoke(ctx, runID, threadID, stream.BuildState(req))
	if err != nil {
		return nil, err
	}

	content := noResponse
	if last, ok := final.LastMessage(); ok && last.Text() != "" {
		content = last.Text()
	}

	return &Result{
		RunID:        runID,
		ThreadID:     threadID,
		Content:      content,
		FinishReason: "stop",
		State:        final,
	}, nil
}
