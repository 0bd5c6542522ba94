package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/logging"
)

func newRunContext(t *testing.T, maxSteps int) (*core.RunContext, chan core.RawEvent) {
	t.Helper()
	emit := make(chan core.RawEvent, 256)
	rc := core.NewRunContext(context.Background(), "run", "thread", core.AgentInfo{Name: "test"}, maxSteps, emit, logging.NoOpLogger{})
	return rc, emit
}

func drain(ch chan core.RawEvent) []core.RawEvent {
	var out []core.RawEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func appendText(text, next string) NodeFunc {
	return func(_ *core.RunContext, s core.ConversationState) (core.ConversationState, error) {
		return s.WithMessages(core.NewTextMessage(core.RoleAssistant, text)).WithNextStep(next), nil
	}
}

func TestGraph_RunRoutesByNextStep(t *testing.T) {
	g, err := New("demo").
		AddNode("a", appendText("from a", "b")).
		AddNode("b", appendText("from b", End)).
		SetEntryPoint("a").
		AddConditionalEdges("a", RouteByNextStep, map[string]string{"b": "b", End: End}).
		AddConditionalEdges("b", RouteByNextStep, map[string]string{End: End}).
		Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.Nodes())

	rc, emit := newRunContext(t, 10)
	initial := core.NewConversationState("mock", "m", []core.Message{core.NewTextMessage(core.RoleUser, "hi")})

	final, err := g.Run(rc, initial)
	require.NoError(t, err)

	require.Len(t, final.Messages, 3)
	assert.Len(t, initial.Messages, 1)
	require.Len(t, final.Steps, 2)
	assert.Equal(t, "a", final.Steps[0].Name)
	assert.Equal(t, "b", final.Steps[0].NextStep)
	assert.Equal(t, End, final.Steps[1].NextStep)

	var kinds []core.EventKind
	var names []string
	for _, ev := range drain(emit) {
		kinds = append(kinds, ev.Kind)
		names = append(names, ev.Name)
	}
	assert.Equal(t, []core.EventKind{
		core.KindGraphStart,
		core.KindStepStart, core.KindStepEnd,
		core.KindStepStart, core.KindStepEnd,
		core.KindGraphEnd,
	}, kinds)
	assert.Equal(t, []string{"demo", "a", "a", "b", "b", "demo"}, names)
}

func TestGraph_StepEndPayload(t *testing.T) {
	g, err := New("demo").AddNode("only", appendText("x", End)).SetEntryPoint("only").Compile()
	require.NoError(t, err)

	rc, emit := newRunContext(t, 0)
	_, err = g.Run(rc, core.ConversationState{})
	require.NoError(t, err)

	events := drain(emit)
	require.Len(t, events, 4)
	end := events[2]
	assert.Equal(t, core.KindStepEnd, end.Kind)
	assert.Equal(t, 0, end.Payload["step"])
	assert.Equal(t, End, end.Payload["next_step"])
	assert.Equal(t, 1, end.Payload["messages"])
	assert.Contains(t, end.Payload, "duration")
}

func TestGraph_UnknownRoute(t *testing.T) {
	g, err := New("demo").
		AddNode("a", appendText("x", "nowhere")).
		SetEntryPoint("a").
		AddConditionalEdges("a", RouteByNextStep, map[string]string{End: End}).
		Compile()
	require.NoError(t, err)

	rc, _ := newRunContext(t, 0)
	_, err = g.Run(rc, core.ConversationState{})
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestGraph_StepLimit(t *testing.T) {
	g, err := New("loop").
		AddNode("a", appendText("x", "a")).
		SetEntryPoint("a").
		AddConditionalEdges("a", RouteByNextStep, map[string]string{"a": "a"}).
		Compile()
	require.NoError(t, err)

	rc, _ := newRunContext(t, 3)
	final, err := g.Run(rc, core.ConversationState{})
	assert.ErrorIs(t, err, core.ErrStepLimitExceeded)
	assert.Len(t, final.Steps, 3)
}

func TestGraph_NodeErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	g, err := New("demo").
		AddNode("a", func(*core.RunContext, core.ConversationState) (core.ConversationState, error) {
			return core.ConversationState{}, boom
		}).
		SetEntryPoint("a").
		Compile()
	require.NoError(t, err)

	rc, _ := newRunContext(t, 0)
	_, err = g.Run(rc, core.ConversationState{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `step "a"`)
}

func TestGraph_Cancelled(t *testing.T) {
	g, err := New("demo").AddNode("a", appendText("x", End)).SetEntryPoint("a").Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := core.NewRunContext(ctx, "run", "thread", core.AgentInfo{}, 0, make(chan core.RawEvent), nil)

	_, err = g.Run(rc, core.ConversationState{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompile_Validation(t *testing.T) {
	noop := appendText("", End)

	tests := []struct {
		name  string
		build func() *StateGraph
	}{
		{"missing entry", func() *StateGraph { return New("g").AddNode("a", noop) }},
		{"edge to unknown", func() *StateGraph {
			return New("g").AddNode("a", noop).SetEntryPoint("a").AddEdge("a", "b")
		}},
		{"route to unknown", func() *StateGraph {
			return New("g").AddNode("a", noop).SetEntryPoint("a").
				AddConditionalEdges("a", RouteByNextStep, map[string]string{"x": "b"})
		}},
		{"duplicate node", func() *StateGraph {
			return New("g").AddNode("a", noop).AddNode("a", noop).SetEntryPoint("a")
		}},
		{"reserved name", func() *StateGraph { return New("g").AddNode(End, noop).SetEntryPoint(End) }},
		{"nil route", func() *StateGraph {
			return New("g").AddNode("a", noop).SetEntryPoint("a").AddConditionalEdges("a", nil, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}
