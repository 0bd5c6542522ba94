// Package server exposes registered agents over HTTP.
//
// Routes:
//
//	GET  /                          hello
//	GET  /health                    liveness
//	GET  /api/agents                agents and providers
//	POST /api/agents/{agent}/stream SSE stream of envelopes
//	POST /api/agents/{agent}/invoke JSON ChatResponse
//	POST /api/chat                  agent from ?agent= or "<agent>:<model>"
//
// Lookup and validation failures are answered with a JSON ErrorResponse
// before any event is streamed. Failures after the first event end the
// stream with a terminal error envelope.
package server
