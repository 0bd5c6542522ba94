package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Envelope mirrors the wire envelope for decoding in tests.
type Envelope struct {
	Event struct {
		Type      string         `json:"type"`
		Content   string         `json:"content"`
		Metadata  map[string]any `json:"metadata"`
		StepName  string         `json:"step_name"`
		ToolName  string         `json:"tool_name"`
		Timestamp string         `json:"timestamp"`
	} `json:"event"`
	RunID    string `json:"run_id"`
	ThreadID string `json:"thread_id"`
}

// DecodeSSE parses a text/event-stream body into envelopes.
func DecodeSSE(r io.Reader) ([]Envelope, error) {
	var out []Envelope

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			return nil, fmt.Errorf("unexpected sse line %q", line)
		}
		env, err := DecodeEnvelope([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}

	return out, sc.Err()
}

// DecodeEnvelope parses one JSON chunk.
func DecodeEnvelope(chunk []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(chunk))
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// Types returns the event types of envs in order.
func Types(envs []Envelope) []string {
	types := make([]string, len(envs))
	for i, e := range envs {
		types[i] = e.Event.Type
	}
	return types
}
