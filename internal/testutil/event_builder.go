package testutil

import (
	"time"

	"github.com/hupe1980/genui/core"
)

// RawEventBuilder provides a fluent helper for constructing raw events in tests.
// Example:
//
//	ev := NewRawEventBuilder().Kind(core.KindToolEnd).Name("get_stock_data").Payload("output", "ok").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type RawEventBuilder struct {
	kind    core.EventKind
	name    string
	payload map[string]any
	at      time.Time
}

// NewRawEventBuilder creates a builder for a step_start event named "chat".
func NewRawEventBuilder() *RawEventBuilder {
	return &RawEventBuilder{kind: core.KindStepStart, name: "chat", payload: map[string]any{}}
}

// Kind sets the event kind (chainable).
func (b *RawEventBuilder) Kind(k core.EventKind) *RawEventBuilder { b.kind = k; return b }

// Name sets the originating step, tool or model (chainable).
func (b *RawEventBuilder) Name(n string) *RawEventBuilder { b.name = n; return b }

// Payload sets one payload key (chainable).
func (b *RawEventBuilder) Payload(key string, value any) *RawEventBuilder {
	b.payload[key] = value
	return b
}

// At fixes the event time (chainable).
func (b *RawEventBuilder) At(t time.Time) *RawEventBuilder { b.at = t; return b }

// Token shapes the builder as a model_token event carrying chunk (chainable).
func (b *RawEventBuilder) Token(chunk any) *RawEventBuilder {
	b.kind = core.KindModelToken
	b.payload["chunk"] = chunk
	return b
}

// ToolStart shapes the builder as a tool_start event (chainable).
func (b *RawEventBuilder) ToolStart(tool string, input map[string]any) *RawEventBuilder {
	b.kind = core.KindToolStart
	b.name = tool
	b.payload["input"] = input
	return b
}

// ToolEnd shapes the builder as a tool_end event (chainable).
func (b *RawEventBuilder) ToolEnd(tool string, output any, duration float64) *RawEventBuilder {
	b.kind = core.KindToolEnd
	b.name = tool
	b.payload["output"] = output
	b.payload["duration"] = duration
	return b
}

// Build finalizes and returns the raw event.
func (b *RawEventBuilder) Build() core.RawEvent {
	ev := core.NewRawEvent(b.kind, b.name, b.payload)
	if !b.at.IsZero() {
		ev.Time = b.at
	}
	b.payload = map[string]any{}
	return ev
}
