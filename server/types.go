package server

import (
	"strings"

	"github.com/hupe1980/genui/engine"
	"github.com/hupe1980/genui/stream"
)

// ChatRequest is the inbound body of every run endpoint.
type ChatRequest struct {
	Provider string           `json:"provider,omitempty"`
	Model    string           `json:"model,omitempty"`
	Prompt   string           `json:"prompt,omitempty"`
	Messages []stream.Message `json:"messages,omitempty"`
	Stream   *bool            `json:"stream,omitempty"`
	Config   map[string]any   `json:"config,omitempty"`
}

// Streaming reports whether the client asked for SSE. Defaults to true.
func (r ChatRequest) Streaming() bool {
	return r.Stream == nil || *r.Stream
}

func (r ChatRequest) toStreamRequest() stream.Request {
	msgs := r.Messages
	if p := strings.TrimSpace(r.Prompt); p != "" {
		msgs = append(msgs, stream.Message{Role: "user", Content: p})
	}
	return stream.Request{
		Provider: r.Provider,
		Model:    r.Model,
		Messages: msgs,
		Config:   r.Config,
	}
}

// ChatResponse is the body of a non-streaming run.
type ChatResponse struct {
	Content      string `json:"content"`
	Role         string `json:"role"`
	FinishReason string `json:"finish_reason,omitempty"`
	RunID        string `json:"run_id,omitempty"`
	ThreadID     string `json:"thread_id,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error           string   `json:"error"`
	Detail          string   `json:"detail,omitempty"`
	AvailableAgents []string `json:"available_agents,omitempty"`
}

// AgentsResponse lists the registered agents and model providers.
type AgentsResponse struct {
	Agents    []engine.AgentInfo `json:"agents"`
	Providers []string           `json:"providers"`
}
