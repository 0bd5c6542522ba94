package stream

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/internal/testutil"
	"github.com/hupe1980/genui/model"
)

type panickyText struct{}

func (panickyText) Text() string { panic("no text") }

var fixedTime = time.Date(2024, 1, 1, 12, 0, 0, 123456789, time.UTC)

func newTestFormatter(debug bool) *Formatter {
	return NewFormatter(func(o *FormatterOptions) {
		o.Debug = debug
		o.Clock = func() time.Time { return fixedTime }
	})
}

func TestFormatter_ChatToken(t *testing.T) {
	f := newTestFormatter(false)

	tests := []struct {
		name  string
		chunk any
		want  string
	}{
		{"model response", model.Response{Partial: true, Message: core.NewTextMessage(core.RoleAssistant, "Hel")}, "Hel"},
		{"response pointer", &model.Response{Message: core.NewTextMessage(core.RoleAssistant, "lo")}, "lo"},
		{"message", core.NewTextMessage(core.RoleAssistant, "msg"), "msg"},
		{"content map", map[string]any{"content": "from map"}, "from map"},
		{"text map", map[string]any{"text": "from text"}, "from text"},
		{"string map", map[string]string{"content": "s"}, "s"},
		{"plain string", "raw", "raw"},
		{"missing", nil, ""},
		{"empty map", map[string]any{}, ""},
		{"unsupported", 42, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := testutil.NewRawEventBuilder().Token(tt.chunk).Build()
			out := f.Format(ev, "run", "thread")
			require.NotNil(t, out)
			assert.Equal(t, EventChatToken, out.Event.Type)
			assert.Equal(t, tt.want, out.Event.Content)
			assert.Equal(t, "run", out.RunID)
			assert.Equal(t, "thread", out.ThreadID)
		})
	}
}

func TestFormatter_TokenWithoutChunkKey(t *testing.T) {
	out := newTestFormatter(false).Format(core.NewRawEvent(core.KindModelToken, "chat", nil), "r", "t")
	require.NotNil(t, out)
	assert.Equal(t, "", out.Event.Content)
}

func TestFormatter_ToolEvents(t *testing.T) {
	f := newTestFormatter(false)

	start := f.Format(testutil.NewRawEventBuilder().ToolStart("get_stock_data", map[string]any{"stock_name": "AAPL"}).Build(), "r", "t")
	require.NotNil(t, start)
	assert.Equal(t, EventToolStart, start.Event.Type)
	assert.Equal(t, "get_stock_data", start.Event.ToolName)
	assert.Equal(t, map[string]any{"input": map[string]any{"stock_name": "AAPL"}}, start.Event.Metadata)

	end := f.Format(testutil.NewRawEventBuilder().ToolEnd("get_stock_data", map[string]any{"AAPL": []int{1}}, 0.25).Build(), "r", "t")
	require.NotNil(t, end)
	assert.Equal(t, EventToolEnd, end.Event.Type)
	assert.Equal(t, `{"AAPL":[1]}`, end.Event.Content)
	assert.Equal(t, 0.25, end.Event.Metadata["duration"])

	bare := f.Format(core.NewRawEvent(core.KindToolEnd, "noop", nil), "r", "t")
	require.NotNil(t, bare)
	assert.Equal(t, "", bare.Event.Content)
	assert.Equal(t, 0, bare.Event.Metadata["duration"])

	text := f.Format(testutil.NewRawEventBuilder().ToolEnd("echo", "plain", 1).Build(), "r", "t")
	assert.Equal(t, "plain", text.Event.Content)
}

func TestFormatter_StepEvents(t *testing.T) {
	f := newTestFormatter(false)

	ev := testutil.NewRawEventBuilder().Kind(core.KindStepEnd).Name("chat").
		Payload("next_step", "tool-processing").Payload("step", 0).At(fixedTime).Build()

	out := f.Format(ev, "r", "t")
	require.NotNil(t, out)
	assert.Equal(t, EventStepEnd, out.Event.Type)
	assert.Equal(t, "chat", out.Event.StepName)
	assert.Equal(t, map[string]any{"next_step": "tool-processing", "step": 0}, out.Event.Metadata)
	assert.Equal(t, "2024-01-01T12:00:00.123456789Z", out.Event.Timestamp)

	// Metadata is a copy.
	out.Event.Metadata["step"] = 99
	assert.Equal(t, 0, ev.Payload["step"])
}

func TestFormatter_DebugEvents(t *testing.T) {
	kinds := []core.EventKind{
		core.KindModelStart, core.KindModelEnd,
		core.KindGraphStart, core.KindGraphEnd,
		core.EventKind("custom"),
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			ev := testutil.NewRawEventBuilder().Kind(kind).Name("gpt-4o").Payload("messages", 2).Build()

			assert.Nil(t, newTestFormatter(false).Format(ev, "r", "t"))

			out := newTestFormatter(true).Format(ev, "r", "t")
			require.NotNil(t, out)
			assert.Equal(t, EventDebug, out.Event.Type)
			assert.Equal(t, string(kind)+": gpt-4o", out.Event.Content)
			assert.Equal(t, 2, out.Event.Metadata["messages"])
			assert.Empty(t, out.Event.StepName)
		})
	}
}

func TestFormatter_RecoversPanics(t *testing.T) {
	out := newTestFormatter(false).Format(testutil.NewRawEventBuilder().Token(panickyText{}).Build(), "r", "t")
	require.NotNil(t, out)
	assert.Equal(t, EventError, out.Event.Type)
	assert.Contains(t, out.Event.Content, "model_token")
	assert.Contains(t, out.Event.Content, "no text")
	assert.Equal(t, "r", out.RunID)
}

func TestFormatter_Synthetic(t *testing.T) {
	f := newTestFormatter(false)
	out := f.Synthetic(EventChatStart, "", map[string]any{"message_count": 1}, "r", "t")
	assert.Equal(t, EventChatStart, out.Event.Type)
	assert.Equal(t, Timestamp(fixedTime), out.Event.Timestamp)

	errEv := f.Error("boom", "r", "t")
	assert.Equal(t, EventError, errEv.Event.Type)
	assert.Equal(t, "boom", errEv.Event.Content)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "s", Stringify("s"))
	assert.Equal(t, "b", Stringify([]byte("b")))
	assert.Equal(t, "12", Stringify(12))
	assert.Equal(t, `{"a":1}`, Stringify(map[string]int{"a": 1}))
	assert.Equal(t, "NaN", Stringify(math.NaN()))
}

func TestFormatter_NeverPanics(t *testing.T) {
	kinds := []any{
		core.KindStepStart, core.KindStepEnd, core.KindModelToken,
		core.KindToolStart, core.KindToolEnd, core.KindModelStart,
		core.KindModelEnd, core.KindGraphStart, core.KindGraphEnd,
		core.EventKind("bogus"), core.EventKind(""),
	}
	values := []any{
		nil, "", "text", 1, 2.5, math.Inf(1), true,
		map[string]any{"content": 3}, map[string]any{"text": nil},
		[]any{1, "a"}, panickyText{}, func() {}, make(chan int),
		model.Response{}, (*model.Response)(nil),
	}
	keys := []any{"chunk", "input", "output", "duration", "step"}

	properties := gopter.NewProperties(nil)
	properties.Property("format returns a typed envelope or nil", prop.ForAll(
		func(kind any, debug bool, key any, idx int) bool {
			f := newTestFormatter(debug)
			ev := core.NewRawEvent(kind.(core.EventKind), "n", map[string]any{key.(string): values[idx]})

			out := f.Format(ev, "run", "thread")
			if out == nil {
				return true
			}
			return out.Event.Type.Valid() && out.RunID == "run" && out.ThreadID == "thread"
		},
		gen.OneConstOf(kinds...),
		gen.Bool(),
		gen.OneConstOf(keys...),
		gen.IntRange(0, len(values)-1),
	))
	properties.TestingRun(t)
}
