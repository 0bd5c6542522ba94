package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/genui/logging"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("PETERCAT_PORT", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "genui ")
}

func TestAgentsCmd(t *testing.T) {
	out, err := execute(t, "agents", "--mock-provider")
	require.NoError(t, err)
	assert.Contains(t, out, "enhanced-markdown")
	assert.Contains(t, out, "raw-web")
	assert.Contains(t, out, "providers: anthropic, mock, openai")
}

func TestRunCmd(t *testing.T) {
	out, err := execute(t, "run", "--mock-provider", "--provider", "mock", "--model", "mock-analyst",
		"enhanced-markdown", "Report", "on", "AAPL")
	require.NoError(t, err)
	assert.Contains(t, out, "[tool get_stock_data]")
	assert.Contains(t, out, "AAPL report")
}

func TestRunCmd_Raw(t *testing.T) {
	out, err := execute(t, "run", "--mock-provider", "--provider", "mock", "--raw", "raw-web", "Report on AAPL")
	require.NoError(t, err)
	assert.Contains(t, out, `data: {"event":{"type":"chat_start"`)
}

func TestRunCmd_UnknownAgent(t *testing.T) {
	_, err := execute(t, "run", "--mock-provider", "ghost", "hi")
	assert.Error(t, err)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, logging.NoOpLogger{}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
