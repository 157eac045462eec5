package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/axsaucedo/agentrun/core"
	"github.com/axsaucedo/agentrun/internal/probe"
	"github.com/axsaucedo/agentrun/logging"
)

// Candidate wire paths, most specific first.
var (
	discoveryPaths = []string{"/mcp/tools", "/tools", "/v1/tools"}
	callPaths      = []string{"/mcp/call", "/call", "/v1/call"}
)

// Tool is one cached entry of the registry: a callable advertised by a tool
// server, remembered together with the server that owns it.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Server      string         `json:"-"`
}

// Registry discovers tools from N configured tool servers and executes them
// by name. The cache is populated by DiscoverTools and only mutated on a
// sweep that succeeded for at least one server; the latest successful sweep
// wins entirely.
type Registry struct {
	servers []string

	discoverClient *http.Client
	callClient     *http.Client
	logger         logging.Logger

	mu    sync.RWMutex
	tools map[string]Tool
	names []string // cache insertion order, for stable listings
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger           logging.Logger
	DiscoveryTimeout time.Duration
	CallTimeout      time.Duration
}

// NewRegistry validates the server list and constructs a registry. At least
// one server URL is required; trailing slashes are stripped.
func NewRegistry(serverURLs []string, optFns ...func(o *RegistryOptions)) (*Registry, error) {
	if len(serverURLs) == 0 {
		return nil, fmt.Errorf("at least one tool server URL is required")
	}
	opts := RegistryOptions{
		Logger:           logging.NoOpLogger{},
		DiscoveryTimeout: 5 * time.Second,
		CallTimeout:      30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	servers := make([]string, 0, len(serverURLs))
	for _, u := range serverURLs {
		u = strings.TrimRight(u, "/")
		if u == "" {
			return nil, fmt.Errorf("invalid tool server URL %q", u)
		}
		servers = append(servers, u)
	}
	return &Registry{
		servers:        servers,
		discoverClient: &http.Client{Timeout: opts.DiscoveryTimeout},
		callClient:     &http.Client{Timeout: opts.CallTimeout},
		logger:         opts.Logger,
		tools:          make(map[string]Tool),
	}, nil
}

// DiscoverTools sweeps every configured server and caches the aggregate.
// Servers that fail are logged and skipped; the sweep only fails, with a
// DiscoveryError and the previous cache left intact, when no server at all
// responded. There is no automatic re-sweep: callers re-invoke explicitly
// when they want fresh state.
func (r *Registry) DiscoverTools(ctx context.Context) ([]Tool, error) {
	tools := make(map[string]Tool)
	var names []string
	succeeded := 0

	for _, server := range r.servers {
		discovered, err := r.discoverFromServer(ctx, server)
		if err != nil {
			r.logger.Warn("tool discovery failed for server", "server", server, "error", err.Error())
			continue
		}
		succeeded++
		for _, t := range discovered {
			if _, seen := tools[t.Name]; !seen {
				names = append(names, t.Name)
			}
			tools[t.Name] = t
		}
		r.logger.Debug("discovered tools from server", "server", server, "count", len(discovered))
	}

	if succeeded == 0 {
		return nil, &core.DiscoveryError{Servers: len(r.servers), Kind: "tool"}
	}

	r.mu.Lock()
	r.tools = tools
	r.names = names
	r.mu.Unlock()

	result := make([]Tool, 0, len(names))
	for _, n := range names {
		result = append(result, tools[n])
	}
	r.logger.Info("tool discovery complete", "tools", len(result), "servers_ok", succeeded)
	return result, nil
}

func (r *Registry) discoverFromServer(ctx context.Context, server string) ([]Tool, error) {
	body, err := probe.Do(ctx, r.discoverClient, server, discoveryPaths, nil, probe.NextOnTransientOr404)
	if err != nil {
		return nil, err
	}
	return r.parseToolsPayload(body, server)
}

// parseToolsPayload accepts either a bare JSON list of descriptors or a
// {"tools": [...]} envelope. Malformed entries are skipped with a warning;
// they never fail the server's whole listing.
func (r *Registry) parseToolsPayload(data []byte, server string) ([]Tool, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var envelope struct {
			Tools []json.RawMessage `json:"tools"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("invalid tools response from %s: %w", server, err)
		}
		entries = envelope.Tools
	}

	tools := make([]Tool, 0, len(entries))
	for _, raw := range entries {
		var t Tool
		if err := json.Unmarshal(raw, &t); err != nil {
			r.logger.Warn("skipping malformed tool entry", "server", server, "error", err.Error())
			continue
		}
		if t.Name == "" {
			r.logger.Warn("skipping tool with empty name", "server", server)
			continue
		}
		t.Server = server
		tools = append(tools, t)
	}
	return tools, nil
}

// CallTool executes a cached tool by name on its owning server. An unknown
// name yields a ToolNotFoundError listing the cached names. Execution
// probes the candidate call paths in order; a 404 moves to the next path,
// any other failure aborts immediately as a ToolExecutionError, as does
// exhausting every path.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	available := make([]string, len(r.names))
	copy(available, r.names)
	r.mu.RUnlock()
	if !ok {
		return nil, &core.ToolNotFoundError{Name: name, Available: available}
	}

	payload := struct {
		Tool      string         `json:"tool"`
		Arguments map[string]any `json:"arguments"`
	}{Tool: name, Arguments: args}

	start := time.Now()
	body, err := probe.Do(ctx, r.callClient, t.Server, callPaths, payload, probe.NextOn404)
	if err != nil {
		execErr := &core.ToolExecutionError{Name: name, Server: t.Server, Err: err}
		r.logToolCall(name, start, execErr)
		return nil, execErr
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		execErr := &core.ToolExecutionError{Name: name, Server: t.Server, Err: fmt.Errorf("invalid result payload: %w", err)}
		r.logToolCall(name, start, execErr)
		return nil, execErr
	}
	r.logToolCall(name, start, nil)
	if envelope, ok := decoded.(map[string]any); ok {
		if result, ok := envelope["result"]; ok {
			return result, nil
		}
	}
	return decoded, nil
}

func (r *Registry) logToolCall(name string, start time.Time, err error) {
	if rl, ok := r.logger.(*logging.RuntimeLogger); ok {
		rl.LogToolCall(name, time.Since(start), err)
		return
	}
	if err != nil {
		r.logger.Error("tool execution failed", "tool", name, "error", err.Error())
		return
	}
	r.logger.Debug("tool executed", "tool", name, "duration", time.Since(start))
}

// Has reports whether a tool name is currently cached.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Tools returns the cached tools in discovery order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.names))
	for _, n := range r.names {
		tools = append(tools, r.tools[n])
	}
	return tools
}

// ToolNames returns the cached tool names in discovery order.
func (r *Registry) ToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Servers returns the configured server URLs.
func (r *Registry) Servers() []string { return r.servers }
