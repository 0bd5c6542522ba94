package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", LogLevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNewLogger_JSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})
	With(l, "run_id", "r1").Info("hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "v", entry["k"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})
	l.Info("dropped")
	l.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

type recordingLogger struct {
	NoOpLogger
	msgs []string
	args [][]any
}

func (r *recordingLogger) Error(msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func (r *recordingLogger) Info(msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func TestWith_WrapsCustomLogger(t *testing.T) {
	rec := &recordingLogger{}
	l := With(rec, "agent", "raw-web")
	LogToolCall(l, "get_stock_data", time.Millisecond, nil)
	LogModelCall(l, "openai", "gpt-4o", time.Second, errors.New("boom"))

	require.Len(t, rec.msgs, 2)
	assert.Equal(t, "tool.call.completed", rec.msgs[0])
	assert.Equal(t, "model.call.failed", rec.msgs[1])
	assert.Equal(t, []any{"agent", "raw-web"}, rec.args[0][:2])
}

func TestWith_Edges(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, With(nil, "a", 1))
	assert.Equal(t, NoOpLogger{}, With(NoOpLogger{}, "a", 1))
	rec := &recordingLogger{}
	assert.Same(t, rec, With(rec).(*recordingLogger))
}

func TestLogStep(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})
	LogStep(l, "chat", "tool-processing", time.Millisecond, nil)
	LogStep(l, "chat", "", time.Millisecond, errors.New("boom"))
	out := buf.String()
	assert.True(t, strings.Contains(out, "step.completed"))
	assert.True(t, strings.Contains(out, "step.failed"))
}
