package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/genui/agent"
	"github.com/hupe1980/genui/engine"
	"github.com/hupe1980/genui/internal/testutil"
	"github.com/hupe1980/genui/model/provider"
	"github.com/hupe1980/genui/tool"
	"github.com/hupe1980/genui/tool/stock"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg := provider.NewRegistry()
	reg.Register("mock", provider.Mock())

	catalog, err := agent.DefaultCatalog()
	require.NoError(t, err)

	agents, err := catalog.Build(reg, []tool.Tool{stock.New(func(o *stock.Options) { o.Days = 5 })})
	require.NoError(t, err)

	eng := engine.New(func(o *engine.Options) {
		o.Providers = reg
		o.Config.DefaultProvider = "mock"
		o.Config.DefaultModel = "mock-analyst"
	})
	for _, a := range agents {
		eng.Register(a)
	}

	return New(eng, func(o *Options) { o.CORSOrigins = []string{"http://localhost:3000"} })
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

const reportBody = `{"messages":[{"role":"user","content":"Report on AAPL"}]}`

func TestServer_StreamStockReport(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/agents/enhanced-markdown/stream", reportBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	envs, err := testutil.DecodeSSE(rec.Body)
	require.NoError(t, err)
	types := testutil.Types(envs)

	require.NotEmpty(t, types)
	assert.Equal(t, "chat_start", types[0])
	assert.Equal(t, "chat_end", types[len(types)-1])
	assert.NotContains(t, types, "error")
	assert.NotContains(t, types, "debug")

	var steps, tools []string
	var content strings.Builder
	for _, env := range envs {
		assert.Equal(t, envs[0].RunID, env.RunID)
		switch env.Event.Type {
		case "step_start":
			steps = append(steps, env.Event.StepName)
		case "tool_start", "tool_end":
			tools = append(tools, env.Event.Type+":"+env.Event.ToolName)
		case "chat_token":
			content.WriteString(env.Event.Content)
		}
	}

	assert.Equal(t, []string{"chat", "tool-processing", "report-generation", "tool-processing"}, steps)
	assert.Equal(t, []string{"tool_start:get_stock_data", "tool_end:get_stock_data"}, tools)
	assert.Contains(t, content.String(), "AAPL report")
	assert.Contains(t, content.String(), "<CandlestickChart")
}

func TestServer_UnknownAgent(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/agents/nope/stream", reportBody)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeError(t, rec)
	assert.Equal(t, "Agent not found", resp.Error)
	assert.Equal(t, []string{agent.EnhancedMarkdown, agent.RawWeb}, resp.AvailableAgents)
}

func TestServer_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"malformed body", "/api/agents/raw-web/stream", `{"messages":`, "Invalid request body"},
		{"unknown provider", "/api/agents/raw-web/stream", `{"provider":"cohere","messages":[]}`, "Unknown provider"},
		{"invoke unknown provider", "/api/agents/raw-web/invoke", `{"provider":"cohere"}`, "Unknown provider"},
		{"chat without agent", "/api/chat", `{"model":"gpt-4o"}`, "Agent required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec).Error)
		})
	}
}

func TestServer_Invoke(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/agents/enhanced-markdown/invoke", reportBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "assistant", resp.Role)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Contains(t, resp.Content, "AAPL report")
	assert.NotEmpty(t, resp.RunID)
}

func TestServer_ChatRouting(t *testing.T) {
	s := newTestServer(t)

	t.Run("composite model, json", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/chat",
			`{"provider":"mock","model":"raw-web:mock-analyst","prompt":"Report on MSFT","stream":false}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Content, "MSFT report")
	})

	t.Run("query agent, stream by default", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/chat?agent=raw-web", `{"prompt":"Report on TSLA"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		envs, err := testutil.DecodeSSE(rec.Body)
		require.NoError(t, err)
		types := testutil.Types(envs)
		assert.Equal(t, "chat_start", types[0])
		assert.Equal(t, "chat_end", types[len(types)-1])
	})

	t.Run("unknown composite agent", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/chat", `{"model":"ghost:gpt-4o"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ListAgents(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AgentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Agents, 2)
	assert.Equal(t, agent.EnhancedMarkdown, resp.Agents[0].Name)
	assert.NotEmpty(t, resp.Agents[0].Description)
	assert.Equal(t, []string{"mock"}, resp.Providers)
}

func TestServer_HealthAndRoot(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "genui")
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/agents/raw-web/stream", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
