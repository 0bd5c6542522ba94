package stream

import (
	"errors"
	"net/http"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// EncodeSSE frames one chunk as a server-sent event.
func EncodeSSE(data []byte) []byte {
	out := make([]byte, 0, len(data)+8)
	out = append(out, "data: "...)
	out = append(out, data...)
	out = append(out, "\n\n"...)
	return out
}

// SSEWriter writes framed chunks to an HTTP response and flushes each one.
// Response headers are committed lazily with the first chunk so callers can
// still answer with a regular error before anything is streamed.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewSSEWriter wraps w. It fails if w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Started reports whether any chunk has been written.
func (s *SSEWriter) Started() bool { return s.started }

// Write frames and flushes chunk.
func (s *SSEWriter) Write(chunk []byte) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := s.w.Write(EncodeSSE(chunk)); err != nil {
		return err
	}
	s.flusher.Flush()

	return nil
}
