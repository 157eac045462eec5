// Package agentrun provides a high-level façade over the orchestration
// runtime (agent core, session memory, tool registries, peer clients and the
// HTTP gateway). Most applications interact with this package by:
//  1. Building a config.Config (from the environment, a YAML file, or code)
//  2. Creating a Runtime via New(cfg)
//  3. Calling Run(ctx) to discover collaborators and serve the gateway
//
// Every collaborator is constructed here, explicitly and in order; nothing
// in the runtime initializes itself through package-level side effects. All
// defaults are safe for local development; production deployments supply a
// real model backend and structured logging configuration.
package agentrun

import (
	"context"
	"fmt"

	"github.com/axsaucedo/agentrun/a2a"
	"github.com/axsaucedo/agentrun/agent"
	"github.com/axsaucedo/agentrun/config"
	"github.com/axsaucedo/agentrun/logging"
	"github.com/axsaucedo/agentrun/mcp"
	"github.com/axsaucedo/agentrun/memory"
	"github.com/axsaucedo/agentrun/model"
	"github.com/axsaucedo/agentrun/model/anthropic"
	"github.com/axsaucedo/agentrun/model/openai"
	"github.com/axsaucedo/agentrun/server"
)

// Runtime aggregates one fully wired agent and its HTTP gateway.
type Runtime struct {
	cfg    config.Config
	agent  *agent.Agent
	server *server.Server
	logger *logging.RuntimeLogger
}

// New wires a Runtime from a validated configuration: logger first, then
// memory, model backend, tool registry, peer clients, agent core and
// finally the gateway. The returned Runtime has not contacted anything yet;
// discovery happens in Run.
func New(cfg config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: cfg.Name,
	})

	mem := memory.NewService(func(o *memory.Options) {
		o.Logger = logger.WithComponent("memory")
	})

	mdl, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	var registries []*mcp.Registry
	if len(cfg.MCPServers) > 0 {
		registry, err := mcp.NewRegistry(cfg.MCPServers, func(o *mcp.RegistryOptions) {
			o.Logger = logger.WithComponent("mcp")
		})
		if err != nil {
			return nil, err
		}
		registries = append(registries, registry)
	}

	peers := make([]*a2a.RemoteAgent, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peer, err := a2a.NewRemoteAgent(p.Name, p.URL, func(o *a2a.Options) {
			o.Logger = logger.WithComponent("a2a")
		})
		if err != nil {
			return nil, err
		}
		peers = append(peers, peer)
	}

	a, err := agent.New(agent.Config{
		Name:         cfg.Name,
		Description:  cfg.Description,
		Instructions: cfg.Instructions,
		Model:        mdl,
		Memory:       mem,
		Registries:   registries,
		Peers:        peers,
		Logger:       logger.WithComponent("agent"),
	})
	if err != nil {
		return nil, err
	}

	srv := server.New(a, func(o *server.Options) {
		o.Logger = logger.WithComponent("server")
	})

	return &Runtime{cfg: cfg, agent: a, server: srv, logger: logger}, nil
}

// Agent returns the wired agent core.
func (r *Runtime) Agent() *agent.Agent { return r.agent }

// Server returns the HTTP gateway.
func (r *Runtime) Server() *server.Server { return r.server }

// Run discovers tools and peers, then serves the gateway until the context
// is canceled.
func (r *Runtime) Run(ctx context.Context) error {
	r.agent.DiscoverCollaborators(ctx)
	addr := fmt.Sprintf(":%d", r.cfg.Port)
	return r.server.ListenAndServe(ctx, addr)
}

func buildModel(cfg config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case "", "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.ModelName
			o.BaseURL = cfg.ModelAPIURL
			o.APIKey = cfg.ModelAPIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = cfg.ModelName
			o.APIKey = cfg.ModelAPIKey
		}), nil
	case "mock":
		return model.NewMockModel(cfg.ModelName), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}
