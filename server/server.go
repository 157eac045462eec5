package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/axsaucedo/agentrun/agent"
	"github.com/axsaucedo/agentrun/logging"
)

// Server is the HTTP gateway in front of one Agent.
type Server struct {
	agent   *agent.Agent
	router  *mux.Router
	handler http.Handler
	logger  logging.Logger
	baseURL string
}

// Options configures the gateway.
type Options struct {
	Logger logging.Logger

	// BaseURL is the externally reachable address advertised on the agent
	// card. Empty means derive it from each request's Host header.
	BaseURL string
}

// New builds the gateway around an agent.
func New(a *agent.Agent, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Server{
		agent:   a,
		router:  mux.NewRouter(),
		logger:  opts.Logger,
		baseURL: opts.BaseURL,
	}
	s.registerRoutes()
	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(s.router)
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.router.HandleFunc("/.well-known/agent", s.handleAgentCard).Methods(http.MethodGet)
	s.router.HandleFunc("/agent/invoke", s.handleInvoke).Methods(http.MethodPost)
	s.router.HandleFunc("/agent/delegate", s.handleDelegate).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/chat/completions", s.handleChatCompletions).Methods(http.MethodPost)
	s.router.HandleFunc("/memory/events", s.handleMemoryEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/memory/sessions", s.handleMemorySessions).Methods(http.MethodGet)
}

// Handler returns the fully wrapped HTTP handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe runs the gateway until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("agent gateway listening", "addr", addr, "agent", s.agent.Name())
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"name":      s.agent.Name(),
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"name":      s.agent.Name(),
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Card(s.externalURL(r)))
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task      string `json:"task"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Task == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "task is required"})
		return
	}
	sid, response, err := s.agent.ProcessMessageSync(r.Context(), req.SessionID, req.Task)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "completed",
		"agent":      s.agent.Name(),
		"session_id": sid,
		"response":   response,
	})
}

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Agent string `json:"agent"`
		Task  string `json:"task"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Agent == "" || req.Task == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "agent and task are required"})
		return
	}
	response, err := s.agent.Delegate(r.Context(), req.Agent, req.Task)
	if err != nil {
		status := http.StatusBadGateway
		if isPeerNotFound(err) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "completed",
		"agent":    req.Agent,
		"response": response,
	})
}

func (s *Server) handleMemoryEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	events := s.agent.Memory().AllEvents()
	if sessionID != "" {
		events = s.agent.Memory().Events(sessionID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":  s.agent.Name(),
		"events": events,
	})
}

func (s *Server) handleMemorySessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":    s.agent.Name(),
		"sessions": s.agent.Memory().ListSessions(),
	})
}

// externalURL prefers the configured base URL and otherwise reconstructs
// the address the client actually reached us on.
func (s *Server) externalURL(r *http.Request) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
