package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/genui/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by workflow steps.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Messages     []core.Message   `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
	// SingleToolCall asks the provider to request at most one tool per turn.
	SingleToolCall bool `json:"single_tool_call,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry deltas; exactly one final chunk carries the complete message.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Text returns the text carried by the chunk.
func (r Response) Text() string { return r.Message.Text() }

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Both channels are closed once generation finishes; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Responder computes the complete assistant message for a request.
type Responder func(req Request) (core.Message, error)

// MockModel is a lightweight in-memory Model useful for tests, examples and
// offline demos. Text is streamed word by word when req.Stream is set.
type MockModel struct {
	info      Info
	responder Responder
}

// NewMockModel constructs a MockModel backed by responder.
func NewMockModel(name, provider string, responder Responder) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responder: responder,
	}
}

// NewScriptedModel returns a MockModel replaying turns in order. Once the
// script is exhausted it echoes the last user message.
func NewScriptedModel(name string, turns ...core.Message) *MockModel {
	var (
		mu   sync.Mutex
		next int
	)
	return NewMockModel(name, "mock", func(req Request) (core.Message, error) {
		mu.Lock()
		defer mu.Unlock()
		if next < len(turns) {
			t := turns[next]
			next++
			return t, nil
		}
		if len(req.Messages) == 0 {
			return core.Message{}, fmt.Errorf("no messages provided")
		}
		last := req.Messages[len(req.Messages)-1]
		return core.NewTextMessage(core.RoleAssistant, fmt.Sprintf("Mock response to: %s", last.Text())), nil
	})
}

// Generate implements Model; emits optional streaming word chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		full, err := m.responder(req)
		if err != nil {
			errCh <- err
			return
		}
		full.Role = core.RoleAssistant

		send := func(r Response) bool {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return false
			case respCh <- r:
				return true
			}
		}

		if req.Stream {
			for _, word := range splitWords(full.Text()) {
				if !send(Response{Partial: true, Message: core.NewTextMessage(core.RoleAssistant, word)}) {
					return
				}
			}
		}

		finish := "stop"
		if full.HasFunctionCalls() {
			finish = "tool_calls"
		}
		send(Response{Message: full, FinishReason: finish})
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// splitWords splits s into chunks that keep their trailing whitespace so that
// concatenating the chunks reproduces s.
func splitWords(s string) []string {
	var chunks []string
	for len(s) > 0 {
		i := strings.IndexAny(s, " \n\t")
		if i < 0 {
			chunks = append(chunks, s)
			break
		}
		chunks = append(chunks, s[:i+1])
		s = s[i+1:]
	}
	return chunks
}
