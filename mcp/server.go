package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/axsaucedo/agentrun/logging"
	"github.com/axsaucedo/agentrun/tool"
)

// Server hosts a fixed set of tools behind the tool wire protocol. It
// answers discovery on every candidate discovery path and execution on
// every candidate call path, so any registry probing order succeeds on the
// first attempt.
type Server struct {
	router *mux.Router
	tools  map[string]tool.Tool
	names  []string
	logger logging.Logger
}

// ServerOptions configures a tool server.
type ServerOptions struct {
	Logger logging.Logger
}

// NewServer builds a server hosting the given tools.
func NewServer(tools []tool.Tool, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Server{
		router: mux.NewRouter(),
		tools:  make(map[string]tool.Tool, len(tools)),
		logger: opts.Logger,
	}
	for _, t := range tools {
		if _, dup := s.tools[t.Name()]; !dup {
			s.names = append(s.names, t.Name())
		}
		s.tools[t.Name()] = t
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	for _, path := range discoveryPaths {
		s.router.HandleFunc(path, s.handleListTools).Methods(http.MethodGet)
	}
	for _, path := range callPaths {
		s.router.HandleFunc(path, s.handleCallTool).Methods(http.MethodPost)
	}
	s.router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	}).Methods(http.MethodGet)
}

// Handler returns the HTTP handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("tool server listening", "addr", addr, "tools", len(s.names))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	descriptors := make([]map[string]any, 0, len(s.names))
	for _, name := range s.names {
		t := s.tools[name]
		descriptors = append(descriptors, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": descriptors})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool      string         `json:"tool"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	t, ok := s.tools[req.Tool]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown tool " + req.Tool})
		return
	}
	result, err := t.Call(r.Context(), req.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", req.Tool, "error", err.Error())
		status := http.StatusInternalServerError
		if toolErr, ok := err.(*tool.ToolError); ok && toolErr.Code == "VALIDATION_ERROR" {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
