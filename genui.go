// Package genui provides a high-level façade that assembles the provider
// registry, the stock tool, the report agents, the engine and the HTTP
// server into one App. Most applications interact with this package by:
//  1. Creating an App via New() or NewFromConfig()
//  2. Serving App.Handler() over HTTP, or
//  3. Running agents directly with Stream, Collect or Invoke
//
// The façade delegates orchestration to engine.Engine and transport to
// server.Server while keeping setup concise. With EnableMock set the App runs
// fully offline.
package genui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hupe1980/genui/agent"
	"github.com/hupe1980/genui/config"
	"github.com/hupe1980/genui/engine"
	"github.com/hupe1980/genui/logging"
	"github.com/hupe1980/genui/model/provider"
	"github.com/hupe1980/genui/server"
	"github.com/hupe1980/genui/stream"
	"github.com/hupe1980/genui/tool"
	"github.com/hupe1980/genui/tool/stock"
)

// Version is the application version reported by the CLI.
var Version = "0.1.0"

// Options configures the App instance.
type Options struct {
	// EngineConfig controls debug forwarding, step limits and default model.
	EngineConfig engine.Config

	// Providers holds the credentials of the built-in model providers.
	Providers provider.Config

	// Registry overrides the provider registry built from Providers.
	Registry *provider.Registry

	// Catalog replaces the embedded agent catalogue.
	Catalog *agent.Catalog

	// Tools extend get_stock_data. Catalogue definitions pick them up by name.
	Tools []tool.Tool

	// StockOptions tune the synthetic market data.
	StockOptions []func(o *stock.Options)

	// CORSOrigins restricts the browser origins allowed by the HTTP server.
	CORSOrigins []string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// App is the assembled generative UI server.
type App struct {
	registry *provider.Registry
	engine   *engine.Engine
	server   *server.Server
}

// New creates an App with the embedded agents registered.
func New(optFns ...func(o *Options)) (*App, error) {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := opts.Registry
	if registry == nil {
		registry = provider.NewDefaultRegistry(opts.Providers)
	}

	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = agent.DefaultCatalog(); err != nil {
			return nil, err
		}
	}

	tools := append([]tool.Tool{stock.New(opts.StockOptions...)}, opts.Tools...)

	agents, err := catalog.Build(registry, tools)
	if err != nil {
		return nil, fmt.Errorf("build agents: %w", err)
	}

	eng := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Providers = registry
		o.Logger = opts.Logger
	})
	for _, a := range agents {
		eng.Register(a)
	}

	srv := server.New(eng, func(o *server.Options) {
		o.CORSOrigins = opts.CORSOrigins
		o.Logger = opts.Logger
	})

	opts.Logger.Info("app.ready", "agents", eng.AgentNames(), "providers", registry.Names())

	return &App{registry: registry, engine: eng, server: srv}, nil
}

// NewFromConfig creates an App from a loaded configuration.
func NewFromConfig(cfg *config.Config, logger logging.Logger) (*App, error) {
	return New(func(o *Options) {
		o.EngineConfig.Debug = cfg.Debug
		o.EngineConfig.MaxSteps = cfg.MaxSteps
		o.EngineConfig.DefaultProvider = cfg.DefaultProvider
		o.EngineConfig.DefaultModel = cfg.DefaultModel
		o.Providers = provider.Config{
			OpenAIAPIKey:    cfg.OpenAIAPIKey,
			OpenAIBaseURL:   cfg.OpenAIBaseURL,
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			EnableMock:      cfg.MockProvider,
		}
		o.CORSOrigins = cfg.CORSOrigins
		o.Logger = logger
	})
}

// Engine returns the underlying engine.
func (a *App) Engine() *engine.Engine { return a.engine }

// Providers returns the registered provider names.
func (a *App) Providers() []string { return a.registry.Names() }

// Handler returns the HTTP handler serving all routes.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Stream runs agentName and yields each serialized envelope.
func (a *App) Stream(ctx context.Context, agentName string, req stream.Request, yield func([]byte) error) error {
	return a.engine.Stream(ctx, agentName, req, yield)
}

// Invoke runs agentName to completion.
func (a *App) Invoke(ctx context.Context, agentName string, req stream.Request) (*engine.Result, error) {
	return a.engine.Invoke(ctx, agentName, req)
}

// Collect is a synchronous helper that drains a stream and returns the
// decoded envelopes. On failure the envelopes received so far are returned
// together with the error.
func (a *App) Collect(ctx context.Context, agentName string, req stream.Request) ([]stream.StreamEvent, error) {
	var events []stream.StreamEvent

	err := a.engine.Stream(ctx, agentName, req, func(chunk []byte) error {
		var ev stream.StreamEvent
		if err := json.Unmarshal(chunk, &ev); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		events = append(events, ev)
		return nil
	})

	return events, err
}
