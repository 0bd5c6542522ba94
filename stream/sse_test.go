package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/genui/internal/testutil"
)

func TestEncodeSSE(t *testing.T) {
	assert.Equal(t, "data: {\"a\":1}\n\n", string(EncodeSSE([]byte(`{"a":1}`))))
}

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()

	w, err := NewSSEWriter(rec)
	require.NoError(t, err)
	assert.False(t, w.Started())

	f := NewFormatter()
	for _, ev := range []*StreamEvent{
		f.Synthetic(EventChatStart, "", nil, "r", "t"),
		f.Synthetic(EventChatEnd, "", nil, "r", "t"),
	} {
		data, err := ev.Marshal()
		require.NoError(t, err)
		require.NoError(t, w.Write(data))
	}

	assert.True(t, w.Started())
	assert.True(t, rec.Flushed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	envs, err := testutil.DecodeSSE(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_start", "chat_end"}, testutil.Types(envs))
}

type noFlush struct{ http.ResponseWriter }

func TestSSEWriter_RequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(noFlush{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}
