// Package provider holds the static table of model provider constructors.
// The table is assembled once at startup and is read-mostly afterwards;
// agents resolve a model.Model per run from the provider and model names
// carried in the conversation state.
package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaisdk "github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"

	"github.com/hupe1980/genui/model"
	"github.com/hupe1980/genui/model/anthropic"
	"github.com/hupe1980/genui/model/openai"
)

// ErrUnknownProvider is returned when no constructor is registered for a provider name.
var ErrUnknownProvider = errors.New("unknown provider")

// Factory builds a model bound to modelName.
type Factory func(modelName string) (model.Model, error)

// Registry maps provider names to model factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds (or replaces) the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Has reports whether a provider is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered provider names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the model for provider/modelName.
func (r *Registry) Resolve(provider, modelName string) (model.Model, error) {
	r.mu.RLock()
	f, ok := r.factories[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return f(modelName)
}

// Config holds the credentials used by the built-in providers.
type Config struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	// EnableMock registers the offline "mock" provider.
	EnableMock bool
}

// NewDefaultRegistry assembles the static provider table: openai and
// anthropic always, mock when enabled. SDK clients are created once here and
// shared by every resolved model.
func NewDefaultRegistry(cfg Config) *Registry {
	r := NewRegistry()
	r.Register("openai", OpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
	r.Register("anthropic", Anthropic(cfg.AnthropicAPIKey))
	if cfg.EnableMock {
		r.Register("mock", Mock())
	}
	return r
}

// OpenAI returns a factory backed by one shared OpenAI client. Retries are
// disabled so failures surface immediately.
func OpenAI(apiKey, baseURL string) Factory {
	opts := []openaioption.RequestOption{openaioption.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, openaioption.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(baseURL))
	}
	client := openaisdk.NewClient(opts...)

	return func(modelName string) (model.Model, error) {
		return openai.NewModelFromClient(&client, func(o *openai.Options) {
			if modelName != "" {
				o.Model = modelName
			}
			o.Temperature = 0.2
		}), nil
	}
}

// Anthropic returns a factory backed by one shared Anthropic client.
func Anthropic(apiKey string) Factory {
	opts := []anthropicoption.RequestOption{anthropicoption.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, anthropicoption.WithAPIKey(apiKey))
	}
	client := anthropicsdk.NewClient(opts...)

	return func(modelName string) (model.Model, error) {
		return anthropic.NewModelFromClient(&client, func(o *anthropic.Options) {
			if modelName != "" {
				o.Model = anthropicsdk.Model(modelName)
			}
			o.Temperature = 0.2
		}), nil
	}
}
