package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/axsaucedo/agentrun/a2a"
	"github.com/axsaucedo/agentrun/core"
	"github.com/axsaucedo/agentrun/logging"
	"github.com/axsaucedo/agentrun/mcp"
	"github.com/axsaucedo/agentrun/memory"
	"github.com/axsaucedo/agentrun/model"
)

// Config is the explicit, validated configuration of one Agent. Every
// collaborator is passed in here; the agent never constructs clients or
// reads environment state on its own.
type Config struct {
	Name         string
	Description  string
	Instructions string

	Model      model.Model
	Memory     *memory.Service
	Registries []*mcp.Registry
	Peers      []*a2a.RemoteAgent

	Logger logging.Logger
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if c.Model == nil {
		return fmt.Errorf("agent %q: model is required", c.Name)
	}
	return nil
}

// Agent orchestrates conversational turns end to end.
type Agent struct {
	name         string
	description  string
	instructions string

	model      model.Model
	memory     *memory.Service
	registries []*mcp.Registry
	peers      []*a2a.RemoteAgent
	logger     logging.Logger

	mu           sync.Mutex
	opsSessionID string // lazily created session recording tool and delegation events
}

// New constructs an Agent from a validated Config. Missing optional pieces
// get safe defaults (fresh in-memory session service, no-op logger).
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Memory == nil {
		cfg.Memory = memory.NewService()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}
	if cfg.Description == "" {
		cfg.Description = "Agent: " + cfg.Name
	}
	if cfg.Instructions == "" {
		cfg.Instructions = "You are a helpful assistant."
	}
	return &Agent{
		name:         cfg.Name,
		description:  cfg.Description,
		instructions: cfg.Instructions,
		model:        cfg.Model,
		memory:       cfg.Memory,
		registries:   cfg.Registries,
		peers:        cfg.Peers,
		logger:       cfg.Logger,
	}, nil
}

// Name returns the agent's configured name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's configured description.
func (a *Agent) Description() string { return a.description }

// Memory exposes the agent's session memory for introspection endpoints.
func (a *Agent) Memory() *memory.Service { return a.memory }

// ModelInfo reports which backend model the agent generates with.
func (a *Agent) ModelInfo() model.Info { return a.model.Info() }

// DiscoverCollaborators runs the initial tool discovery sweep on every
// registry and fetches every peer's card. Failures are logged and
// tolerated: a tool server or peer that is down at startup can still be
// reached later via explicit re-discovery or lazy card fetch.
func (a *Agent) DiscoverCollaborators(ctx context.Context) {
	for _, r := range a.registries {
		if _, err := r.DiscoverTools(ctx); err != nil {
			a.logger.Warn("initial tool discovery failed", "error", err.Error())
		}
	}
	for _, p := range a.peers {
		if _, err := p.Discover(ctx); err != nil {
			a.logger.Warn("initial peer discovery failed", "peer", p.Name(), "error", err.Error())
		}
	}
}

// ProcessMessage runs one conversational turn. It ensures the session
// exists (creating one when sessionID is empty or unknown), records the
// user message, builds model context from memory, and starts generation.
//
// The returned channel yields response chunks lazily; their concatenation
// is the full turn text, which is also recorded as an agent_response event
// once generation completes. Non-streaming callers use ProcessMessageSync.
//
// Model backend failures do not surface as errors here: they are recorded
// as an error event and converted into an apologetic chunk, keeping the
// turn well-formed. The error channel only carries context cancellation.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, message string, stream bool) (string, <-chan string, <-chan error) {
	sessionID = a.ensureSession(sessionID)
	log := a.logger

	a.recordEvent(sessionID, core.NewMemoryEvent(core.EventUserMessage, message, nil))

	msgs := []model.Message{{Role: "system", Content: a.instructions}}
	if history := a.memory.BuildContext(sessionID, memory.DefaultContextWindow, a.toolNames(), a.peerNames()); history != "" {
		msgs = append(msgs, model.Message{Role: "user", Content: history})
	}
	msgs = append(msgs, model.Message{Role: "user", Content: message})

	out := make(chan string, 32)
	errOut := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errOut)

		start := time.Now()
		respCh, errCh := a.model.Generate(ctx, model.Request{Messages: msgs, Stream: stream})

		var full strings.Builder
		for respCh != nil || errCh != nil {
			select {
			case resp, ok := <-respCh:
				if !ok {
					respCh = nil
					continue
				}
				if resp.Content == "" {
					continue
				}
				full.WriteString(resp.Content)
				select {
				case out <- resp.Content:
				case <-ctx.Done():
					errOut <- ctx.Err()
					return
				}
			case err, ok := <-errCh:
				if !ok {
					errCh = nil
					continue
				}
				if err == nil {
					continue
				}
				backendErr := &core.ModelBackendError{Provider: a.model.Info().Provider, Err: err}
				log.Error("model call failed", "model", a.model.Info().Name, "duration", time.Since(start), "error", backendErr.Error())
				a.recordEvent(sessionID, core.NewMemoryEvent(core.EventError, backendErr.Error(), nil))
				apology := fmt.Sprintf("Sorry, I encountered an error: %v", err)
				full.WriteString(apology)
				select {
				case out <- apology:
				case <-ctx.Done():
				}
				a.recordEvent(sessionID, core.NewMemoryEvent(core.EventAgentResponse, full.String(), nil))
				return
			case <-ctx.Done():
				errOut <- ctx.Err()
				return
			}
		}

		log.Debug("model call completed", "model", a.model.Info().Name, "duration", time.Since(start))
		a.recordEvent(sessionID, core.NewMemoryEvent(core.EventAgentResponse, full.String(), nil))
	}()

	return sessionID, out, errOut
}

// ProcessMessageSync drains a non-streaming turn and returns the complete
// response text.
func (a *Agent) ProcessMessageSync(ctx context.Context, sessionID, message string) (string, string, error) {
	sid, chunks, errCh := a.ProcessMessage(ctx, sessionID, message, false)
	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}
	if err := <-errCh; err != nil {
		return sid, full.String(), err
	}
	return sid, full.String(), nil
}

// ExecuteTool invokes a tool by name on whichever configured registry has
// it cached. An unknown name yields a ToolNotFoundError aggregating every
// cached tool name across registries.
func (a *Agent) ExecuteTool(ctx context.Context, name string, args map[string]any) (any, error) {
	for _, r := range a.registries {
		if !r.Has(name) {
			continue
		}
		result, err := r.CallTool(ctx, name, args)
		if err != nil {
			return nil, err
		}
		a.recordEvent(a.opsSession(), core.NewMemoryEvent(core.EventToolCall, name, map[string]string{"tool": name}))
		return result, nil
	}
	return nil, &core.ToolNotFoundError{Name: name, Available: a.toolNames()}
}

// Delegate forwards a task to the named peer. The delegation_request event
// is recorded before the call and delegation_response after; those two are
// the only events a coordinator's memory ever holds about a peer
// interaction; the peer records its own turn in its own process. An
// unknown peer fails with PeerNotFoundError before anything is recorded.
func (a *Agent) Delegate(ctx context.Context, peerName, task string) (string, error) {
	var peer *a2a.RemoteAgent
	for _, p := range a.peers {
		if p.Name() == peerName {
			peer = p
			break
		}
	}
	if peer == nil {
		return "", &core.PeerNotFoundError{Name: peerName}
	}

	sid := a.opsSession()
	a.recordEvent(sid, core.NewMemoryEvent(core.EventDelegationRequest, task, map[string]string{"peer": peerName}))

	response, err := peer.Invoke(ctx, task)
	if err != nil {
		a.recordEvent(sid, core.NewMemoryEvent(core.EventError, err.Error(), map[string]string{"peer": peerName}))
		return "", err
	}

	a.recordEvent(sid, core.NewMemoryEvent(core.EventDelegationResponse, response, map[string]string{"peer": peerName}))
	return response, nil
}

// Card synthesizes this agent's discovery document from its current state:
// cached tools become skills, and capabilities reflect what is actually
// configured. task_execution is always advertised; tool_execution requires
// at least one cached tool; task_delegation requires at least one peer.
func (a *Agent) Card(baseURL string) core.AgentCard {
	var skills []core.Skill
	for _, r := range a.registries {
		for _, t := range r.Tools() {
			skills = append(skills, core.Skill{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
	}

	capabilities := []string{core.CapabilityTaskExecution}
	if len(skills) > 0 {
		capabilities = append(capabilities, core.CapabilityToolExecution)
	}
	if len(a.peers) > 0 {
		capabilities = append(capabilities, core.CapabilityTaskDelegation)
	}

	if skills == nil {
		skills = []core.Skill{}
	}
	return core.AgentCard{
		Name:         a.name,
		Description:  a.description,
		URL:          baseURL,
		Skills:       skills,
		Capabilities: capabilities,
	}
}

// PeerNames lists the configured peer names.
func (a *Agent) PeerNames() []string { return a.peerNames() }

// ensureSession creates the session when the id is empty or unknown so a
// caller-supplied id works on first contact.
func (a *Agent) ensureSession(sessionID string) string {
	if sessionID == "" {
		return a.memory.CreateSession(a.name, "user", "")
	}
	if _, ok := a.memory.Session(sessionID); !ok {
		return a.memory.CreateSession(a.name, "user", sessionID)
	}
	return sessionID
}

// opsSession lazily creates the coordination session that tool and
// delegation events are appended to.
func (a *Agent) opsSession() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opsSessionID == "" {
		a.opsSessionID = a.memory.CreateSession(a.name, "coordinator", "")
	}
	return a.opsSessionID
}

func (a *Agent) recordEvent(sessionID string, ev core.MemoryEvent) {
	if err := a.memory.AddEvent(sessionID, ev); err != nil {
		a.logger.Warn("event not recorded", "session_id", sessionID, "event_type", string(ev.Type), "error", err.Error())
	}
}

func (a *Agent) toolNames() []string {
	var names []string
	for _, r := range a.registries {
		names = append(names, r.ToolNames()...)
	}
	return names
}

func (a *Agent) peerNames() []string {
	names := make([]string, 0, len(a.peers))
	for _, p := range a.peers {
		names = append(names, p.Name())
	}
	return names
}
