package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind enumerates the lifecycle events a workflow run produces.
type EventKind string

const (
	// KindStepStart marks the beginning of a workflow node.
	KindStepStart EventKind = "step_start"
	// KindStepEnd marks the completion of a workflow node.
	KindStepEnd EventKind = "step_end"
	// KindModelToken carries one streamed model token delta.
	KindModelToken EventKind = "model_token"
	// KindToolStart marks the beginning of a tool execution.
	KindToolStart EventKind = "tool_start"
	// KindToolEnd marks the completion of a tool execution.
	KindToolEnd EventKind = "tool_end"
	// KindModelStart is emitted before a completion request is issued.
	KindModelStart EventKind = "model_start"
	// KindModelEnd is emitted once a completion request has finished.
	KindModelEnd EventKind = "model_end"
	// KindGraphStart is emitted when a workflow graph begins executing.
	KindGraphStart EventKind = "graph_start"
	// KindGraphEnd is emitted when a workflow graph reaches its end.
	KindGraphEnd EventKind = "graph_end"
)

var knownKinds = map[EventKind]struct{}{
	KindStepStart:  {},
	KindStepEnd:    {},
	KindModelToken: {},
	KindToolStart:  {},
	KindToolEnd:    {},
	KindModelStart: {},
	KindModelEnd:   {},
	KindGraphStart: {},
	KindGraphEnd:   {},
}

// IsKnown reports whether k is one of the declared kinds.
func (k EventKind) IsKnown() bool {
	_, ok := knownKinds[k]
	return ok
}

// String implements fmt.Stringer.
func (k EventKind) String() string { return string(k) }

// RawEvent is a workflow-internal lifecycle event. Name is the originating
// step, tool or model. The payload shape depends on Kind and is consumed once
// by the streaming layer.
type RawEvent struct {
	Kind    EventKind
	Name    string
	Payload map[string]any
	Time    time.Time
}

// NewRawEvent creates a timestamped raw event.
func NewRawEvent(kind EventKind, name string, payload map[string]any) RawEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	return RawEvent{
		Kind:    kind,
		Name:    name,
		Payload: payload,
		Time:    time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for runs, threads and tool calls.
func NewID() string { return uuid.NewString() }
