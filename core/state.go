package core

import (
	"slices"
	"time"
)

// Step records one visited workflow node.
type Step struct {
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	NextStep  string        `json:"next_step,omitempty"`
}

// ConversationState is the value threaded through every workflow step. Steps
// receive a state and return a new one; the With* helpers copy slices so the
// caller's state is never aliased.
type ConversationState struct {
	Messages []Message `json:"messages"`
	Steps    []Step    `json:"steps"`
	NextStep string    `json:"next_step,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// NewConversationState builds the initial state of a run.
func NewConversationState(provider, model string, messages []Message) ConversationState {
	return ConversationState{
		Messages: slices.Clone(messages),
		Provider: provider,
		Model:    model,
	}
}

// WithMessages returns a copy with msgs appended.
func (s ConversationState) WithMessages(msgs ...Message) ConversationState {
	next := s
	next.Messages = append(slices.Clone(s.Messages), msgs...)
	return next
}

// WithStep returns a copy with step appended.
func (s ConversationState) WithStep(step Step) ConversationState {
	next := s
	next.Steps = append(slices.Clone(s.Steps), step)
	return next
}

// WithNextStep returns a copy routed to next.
func (s ConversationState) WithNextStep(next string) ConversationState {
	s.NextStep = next
	return s
}

// LastMessage returns the most recent message, if any.
func (s ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
