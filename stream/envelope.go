package stream

import (
	"encoding/json"
	"time"
)

// EventType is the normalized wire event kind.
type EventType string

const (
	EventChatStart EventType = "chat_start"
	EventChatToken EventType = "chat_token"
	EventChatEnd   EventType = "chat_end"
	EventToolStart EventType = "tool_start"
	EventToolEnd   EventType = "tool_end"
	EventStepStart EventType = "step_start"
	EventStepEnd   EventType = "step_end"
	EventError     EventType = "error"
	EventDebug     EventType = "debug"
)

// Valid reports whether t is one of the declared wire types.
func (t EventType) Valid() bool {
	switch t {
	case EventChatStart, EventChatToken, EventChatEnd,
		EventToolStart, EventToolEnd,
		EventStepStart, EventStepEnd,
		EventError, EventDebug:
		return true
	default:
		return false
	}
}

// EventData is the normalized payload of one envelope.
type EventData struct {
	Type      EventType      `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	StepName  string         `json:"step_name,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// StreamEvent wraps EventData with the identifiers of its run.
type StreamEvent struct {
	Event    EventData `json:"event"`
	RunID    string    `json:"run_id"`
	ThreadID string    `json:"thread_id"`
}

// Marshal encodes the envelope as JSON.
func (e *StreamEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func newStreamEvent(typ EventType, content string, metadata map[string]any, at time.Time, runID, threadID string) *StreamEvent {
	return &StreamEvent{
		Event: EventData{
			Type:      typ,
			Content:   content,
			Metadata:  metadata,
			Timestamp: Timestamp(at),
		},
		RunID:    runID,
		ThreadID: threadID,
	}
}

// Timestamp renders t as RFC 3339 with nanoseconds.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
