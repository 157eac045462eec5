// Package config defines the explicit process configuration for the agent
// runtime. Configuration is loaded exactly once by the process entry point
// (environment variables, optionally a YAML file) and validated before any
// component is constructed; no component reads ambient environment state on
// its own.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default timeouts for outbound calls, sized per collaborator: discovery is
// a cheap metadata fetch, invocation may do real work, model inference is
// slow.
const (
	DefaultDiscoveryTimeoutSeconds  = 5
	DefaultInvocationTimeoutSeconds = 30
	DefaultModelTimeoutSeconds      = 60
)

// Peer identifies one configured peer agent: the name used for delegation
// and the URL its discovery card is fetched from.
type Peer struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config carries the full static configuration of one agent process.
type Config struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Instructions string `yaml:"instructions"`

	ModelProvider string `yaml:"model_provider"` // "openai" (default), "anthropic" or "mock"
	ModelAPIURL   string `yaml:"model_api_url"`
	ModelAPIKey   string `yaml:"model_api_key"`
	ModelName     string `yaml:"model_name"`

	MCPServers []string `yaml:"mcp_servers"`
	Peers      []Peer   `yaml:"peer_agents"`

	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// FromEnv builds a Config from environment variables. Peer agents are given
// as a comma separated list of name=url pairs; a bare URL gets its host as
// the peer name.
func FromEnv() Config {
	cfg := Config{
		Name:          getenv("AGENT_NAME", "default-agent"),
		Description:   getenv("AGENT_DESCRIPTION", "AI Agent"),
		Instructions:  getenv("AGENT_INSTRUCTIONS", "You are a helpful assistant."),
		ModelProvider: getenv("MODEL_PROVIDER", "openai"),
		ModelAPIURL:   getenv("MODEL_API_URL", "http://localhost:8000"),
		ModelAPIKey:   os.Getenv("MODEL_API_KEY"),
		ModelName:     getenv("MODEL_NAME", "gpt-4o-mini"),
		Port:          getenvInt("AGENT_PORT", 8000),
		LogLevel:      getenv("AGENT_LOG_LEVEL", "INFO"),
		LogFormat:     getenv("AGENT_LOG_FORMAT", "json"),
	}
	cfg.MCPServers = splitList(os.Getenv("MCP_SERVERS"))
	for _, entry := range splitList(os.Getenv("PEER_AGENTS")) {
		cfg.Peers = append(cfg.Peers, parsePeer(entry))
	}
	return cfg
}

// FromFile loads a Config from a YAML file.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for construction-time errors so that
// misconfiguration fails the process at startup, not mid-turn.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	switch c.ModelProvider {
	case "", "openai":
		if c.ModelAPIURL == "" {
			return fmt.Errorf("model_api_url is required for the openai provider")
		}
	case "anthropic", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", c.ModelProvider)
	}
	if c.ModelName == "" {
		return fmt.Errorf("model_name is required")
	}
	for i, s := range c.MCPServers {
		if _, err := url.ParseRequestURI(s); err != nil {
			return fmt.Errorf("mcp server %d: invalid url %q", i, s)
		}
	}
	for i, p := range c.Peers {
		if p.Name == "" {
			return fmt.Errorf("peer %d: name is required", i)
		}
		if _, err := url.ParseRequestURI(p.URL); err != nil {
			return fmt.Errorf("peer %q: invalid url %q", p.Name, p.URL)
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func parsePeer(entry string) Peer {
	if name, addr, ok := strings.Cut(entry, "="); ok {
		return Peer{Name: strings.TrimSpace(name), URL: strings.TrimSpace(addr)}
	}
	name := entry
	if u, err := url.Parse(entry); err == nil && u.Host != "" {
		name = u.Hostname()
	}
	return Peer{Name: name, URL: entry}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
