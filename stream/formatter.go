package stream

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/hupe1980/genui/core"
)

// FormatterOptions configures a Formatter.
type FormatterOptions struct {
	Debug bool
	// Clock stamps synthetic envelopes and raw events without a time.
	Clock func() time.Time
}

// Formatter maps raw events onto wire envelopes. It never panics; a failure
// while formatting yields an error envelope instead.
type Formatter struct {
	debug bool
	clock func() time.Time
}

// NewFormatter creates a Formatter.
func NewFormatter(optFns ...func(o *FormatterOptions)) *Formatter {
	opts := FormatterOptions{
		Clock: func() time.Time { return time.Now().UTC() },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Formatter{debug: opts.Debug, clock: opts.Clock}
}

// Format converts ev into an envelope. It returns nil for events that have
// no wire representation in the current mode.
func (f *Formatter) Format(ev core.RawEvent, runID, threadID string) (out *StreamEvent) {
	defer func() {
		if r := recover(); r != nil {
			out = f.Error(fmt.Sprintf("failed to format %s event: %v", ev.Kind, r), runID, threadID)
		}
	}()

	at := ev.Time
	if at.IsZero() {
		at = f.clock()
	}

	switch ev.Kind {
	case core.KindModelToken:
		return newStreamEvent(EventChatToken, ContentOf(ev.Payload["chunk"]), nil, at, runID, threadID)

	case core.KindToolStart:
		out := newStreamEvent(EventToolStart, "", map[string]any{"input": ev.Payload["input"]}, at, runID, threadID)
		out.Event.ToolName = ev.Name
		return out

	case core.KindToolEnd:
		duration, ok := ev.Payload["duration"]
		if !ok || duration == nil {
			duration = 0
		}
		out := newStreamEvent(EventToolEnd, Stringify(ev.Payload["output"]), map[string]any{"duration": duration}, at, runID, threadID)
		out.Event.ToolName = ev.Name
		return out

	case core.KindStepStart:
		out := newStreamEvent(EventStepStart, "", maps.Clone(ev.Payload), at, runID, threadID)
		out.Event.StepName = ev.Name
		return out

	case core.KindStepEnd:
		out := newStreamEvent(EventStepEnd, "", maps.Clone(ev.Payload), at, runID, threadID)
		out.Event.StepName = ev.Name
		return out

	default:
		// model_start, model_end, graph_start, graph_end and unknown kinds.
		return f.debugEvent(ev, at, runID, threadID)
	}
}

func (f *Formatter) debugEvent(ev core.RawEvent, at time.Time, runID, threadID string) *StreamEvent {
	if !f.debug {
		return nil
	}
	return newStreamEvent(EventDebug, fmt.Sprintf("%s: %s", ev.Kind, ev.Name), maps.Clone(ev.Payload), at, runID, threadID)
}

// Synthetic builds an envelope that has no raw event behind it, such as
// chat_start and chat_end.
func (f *Formatter) Synthetic(typ EventType, content string, metadata map[string]any, runID, threadID string) *StreamEvent {
	return newStreamEvent(typ, content, metadata, f.clock(), runID, threadID)
}

// Error builds an error envelope carrying message.
func (f *Formatter) Error(message, runID, threadID string) *StreamEvent {
	return newStreamEvent(EventError, message, nil, f.clock(), runID, threadID)
}

// ContentOf extracts text from a streamed chunk. Supported shapes are values
// with a Text method, maps with a "content" or "text" key and plain strings.
// Anything else yields "".
func ContentOf(chunk any) string {
	switch v := chunk.(type) {
	case nil:
		return ""
	case string:
		return v
	case interface{ Text() string }:
		return v.Text()
	case map[string]any:
		for _, key := range []string{"content", "text"} {
			if c, ok := v[key]; ok && c != nil {
				return Stringify(c)
			}
		}
		return ""
	case map[string]string:
		if c, ok := v["content"]; ok {
			return c
		}
		return v["text"]
	default:
		return ""
	}
}

// Stringify renders a tool output: strings verbatim, other values as JSON,
// falling back to fmt formatting for values JSON cannot encode.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	}
	if raw, err := json.Marshal(v); err == nil {
		return string(raw)
	}
	return fmt.Sprintf("%v", v)
}
