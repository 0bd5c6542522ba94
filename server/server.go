package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/hupe1980/genui/engine"
	"github.com/hupe1980/genui/logging"
	"github.com/hupe1980/genui/model/provider"
	"github.com/hupe1980/genui/stream"
)

// Engine is the subset of *engine.Engine the HTTP layer needs.
type Engine interface {
	Stream(ctx context.Context, agentName string, req stream.Request, yield func([]byte) error) error
	Invoke(ctx context.Context, agentName string, req stream.Request) (*engine.Result, error)
	Agents() []engine.AgentInfo
	Providers() []string
}

// Options configures a Server.
type Options struct {
	// CORSOrigins lists the allowed origins. Empty allows all.
	CORSOrigins []string

	// InvokeTimeout bounds non-streaming runs. Zero disables it.
	InvokeTimeout time.Duration

	// MaxBodyBytes caps the request body size.
	MaxBodyBytes int64

	Logger logging.Logger
}

// Server exposes the agents over HTTP.
type Server struct {
	engine  Engine
	router  *mux.Router
	handler http.Handler
	opts    Options
	logger  logging.Logger
}

// New creates a Server for eng.
func New(eng Engine, optFns ...func(o *Options)) *Server {
	opts := Options{
		InvokeTimeout: 2 * time.Minute,
		MaxBodyBytes:  1 << 20,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		engine: eng,
		router: mux.NewRouter(),
		opts:   opts,
		logger: opts.Logger,
	}
	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(s.router)

	return s
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents", s.handleListAgents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents/{agent}/stream", s.handleAgentStream).Methods(http.MethodPost)
	s.router.HandleFunc("/api/agents/{agent}/invoke", s.handleAgentInvoke).Methods(http.MethodPost)
	s.router.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from genui"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	providers := s.engine.Providers()
	if providers == nil {
		providers = []string{}
	}
	writeJSON(w, http.StatusOK, AgentsResponse{Agents: s.engine.Agents(), Providers: providers})
}

func (s *Server) handleAgentStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.stream(w, r, mux.Vars(r)["agent"], req)
}

func (s *Server) handleAgentInvoke(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.invoke(w, r, mux.Vars(r)["agent"], req)
}

// handleChat picks the agent from ?agent= or from a "<agent>:<model>" model
// string.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	agentName := strings.TrimSpace(r.URL.Query().Get("agent"))
	if agentName == "" {
		if name, mdl, found := strings.Cut(req.Model, ":"); found {
			agentName, req.Model = name, mdl
		}
	}
	if agentName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Agent required",
			Detail: `set ?agent= or use a "<agent>:<model>" model`,
		})
		return
	}

	if req.Streaming() {
		s.stream(w, r, agentName, req)
		return
	}
	s.invoke(w, r, agentName, req)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, agentName string, req ChatRequest) {
	sse, err := stream.NewSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Streaming unsupported", Detail: err.Error()})
		return
	}

	logger := logging.With(s.logger, "agent", agentName, "path", r.URL.Path)
	start := time.Now()

	err = s.engine.Stream(r.Context(), agentName, req.toStreamRequest(), sse.Write)
	if err != nil {
		if !sse.Started() {
			s.writeError(w, err)
			return
		}
		logger.Error("stream.failed", "error", err, "duration", time.Since(start))
		return
	}

	logger.Info("stream.completed", "duration", time.Since(start))
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request, agentName string, req ChatRequest) {
	ctx := r.Context()
	if s.opts.InvokeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.InvokeTimeout)
		defer cancel()
	}

	res, err := s.engine.Invoke(ctx, agentName, req.toStreamRequest())
	if err != nil {
		s.logger.Error("invoke.failed", "agent", agentName, "error", err)
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Content:      res.Content,
		Role:         "assistant",
		FinishReason: res.FinishReason,
		RunID:        res.RunID,
		ThreadID:     res.ThreadID,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest

	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Detail: err.Error()})
		return req, false
	}

	return req, true
}

// writeError maps engine errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var notFound *engine.AgentNotFoundError

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:           "Agent not found",
			Detail:          err.Error(),
			AvailableAgents: notFound.Available,
		})
	case errors.Is(err, provider.ErrUnknownProvider):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Unknown provider", Detail: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "Run timed out", Detail: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Run failed", Detail: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
