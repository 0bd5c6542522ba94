// Package stream normalizes workflow events into the client wire protocol.
//
// A run flows through three stages:
//   - Classifier drops internal events the client never sees
//   - Formatter maps each accepted raw event onto a StreamEvent envelope
//   - Adapter drives the workflow, serializes envelopes in order and brackets
//     the run with chat_start / chat_end (or a terminal error envelope)
//
// Envelopes are framed as server-sent events by EncodeSSE and SSEWriter.
package stream
