// Package testutil contains internal helpers for constructing raw events and
// decoding server-sent event streams in tests. Not part of the public API.
package testutil
