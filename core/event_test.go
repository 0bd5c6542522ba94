package core

import (
	"errors"
	"testing"
)

func TestEventKind_IsKnown(t *testing.T) {
	for _, k := range []EventKind{
		KindStepStart, KindStepEnd, KindModelToken, KindToolStart, KindToolEnd,
		KindModelStart, KindModelEnd, KindGraphStart, KindGraphEnd,
	} {
		if !k.IsKnown() {
			t.Errorf("expected %q to be known", k)
		}
	}
	if EventKind("on_chain_stream").IsKnown() {
		t.Error("unexpected known kind")
	}
}

func TestNewRawEvent(t *testing.T) {
	ev := NewRawEvent(KindToolStart, "get_stock_data", nil)
	if ev.Payload == nil {
		t.Fatal("payload should never be nil")
	}
	if ev.Time.IsZero() || ev.Name != "get_stock_data" || ev.Kind != KindToolStart {
		t.Fatalf("NewRawEvent did not initialize fields correctly: %+v", ev)
	}
}

func TestNewID_Uniqueness(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == b {
		t.Error("Expected unique IDs")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"user":      RoleUser,
		"assistant": RoleAssistant,
		"system":    RoleSystem,
		" System ":  RoleSystem,
		"tool":      RoleUser,
		"developer": RoleUser,
		"":          RoleUser,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMessage_Helpers(t *testing.T) {
	msg := Message{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "hello "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "get_stock_data", Arguments: `{"stock_name":"AAPL"}`}},
		TextPart{Text: "world"},
	}}
	if msg.Text() != "hello world" {
		t.Fatalf("unexpected text %q", msg.Text())
	}
	calls := msg.FunctionCalls()
	if len(calls) != 1 || !msg.HasFunctionCalls() {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	args, err := calls[0].Args()
	if err != nil || args["stock_name"] != "AAPL" {
		t.Fatalf("unexpected args %v (%v)", args, err)
	}

	empty, err := FunctionCall{Name: "x"}.Args()
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty arguments should decode to empty map: %v %v", empty, err)
	}
	if _, err := (FunctionCall{Arguments: "{"}).Args(); err == nil {
		t.Fatal("expected decode error")
	}

	res := NewToolResultMessage(FunctionResponse{ID: "c1", Name: "get_stock_data", Response: 42})
	if res.Role != RoleTool || len(res.FunctionResponses()) != 1 {
		t.Fatalf("malformed tool result: %+v", res)
	}
}

func TestConversationState_IsAValue(t *testing.T) {
	base := NewConversationState("openai", "gpt-4o", []Message{NewTextMessage(RoleUser, "hi")})
	next := base.WithMessages(NewTextMessage(RoleAssistant, "hello")).WithNextStep("end")

	if len(base.Messages) != 1 || base.NextStep != "" {
		t.Fatalf("base state mutated: %+v", base)
	}
	if len(next.Messages) != 2 || next.NextStep != "end" {
		t.Fatalf("unexpected next state: %+v", next)
	}

	a := next.WithMessages(NewTextMessage(RoleUser, "a"))
	b := next.WithMessages(NewTextMessage(RoleUser, "b"))
	if a.Messages[2].Text() != "a" || b.Messages[2].Text() != "b" {
		t.Fatal("appends must not alias each other")
	}

	stepped := next.WithStep(Step{Name: "chat"})
	if len(next.Steps) != 0 || len(stepped.Steps) != 1 {
		t.Fatal("WithStep must copy")
	}

	last, ok := next.LastMessage()
	if !ok || last.Text() != "hello" {
		t.Fatalf("unexpected last message %+v", last)
	}
	if _, ok := (ConversationState{}).LastMessage(); ok {
		t.Fatal("empty state has no last message")
	}
}

func TestStepLimiter(t *testing.T) {
	l := NewStepLimiter(2)
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if l.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", l.Remaining())
	}
	err := l.Increment()
	if !errors.Is(err, ErrStepLimitExceeded) {
		t.Fatalf("expected ErrStepLimitExceeded, got %v", err)
	}
	if l.Count() != 3 {
		t.Fatalf("unexpected count %d", l.Count())
	}

	unlimited := NewStepLimiter(0)
	for range 100 {
		if err := unlimited.Increment(); err != nil {
			t.Fatal(err)
		}
	}
	if unlimited.Remaining() != -1 {
		t.Fatal("unlimited limiter should report -1")
	}
}
