// Package a2a implements the client side of the agent-to-agent protocol:
// fetching a peer's discovery card from its well-known endpoint and
// delegating tasks to the invoke endpoint the card advertises. The card is
// fetched once and cached; invocation failures never invalidate it. A
// caller wanting fresh state re-discovers explicitly.
package a2a

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

const wellKnownPath = "/.well-known/agent"

// RemoteAgent is a client for one configured peer agent.
type RemoteAgent struct {
	name    string
	cardURL string

	discoverClient *http.Client
	invokeClient   *http.Client
	logger         logging.Logger

	mu   sync.Mutex
	card *core.AgentCard
}

// Options configures a RemoteAgent.
type Options struct {
	Logger           logging.Logger
	DiscoveryTimeout time.Duration
	InvokeTimeout    time.Duration
}

// NewRemoteAgent creates a client for the peer whose card is served under
// cardURL. The peer is not contacted until Discover or Invoke is called.
func NewRemoteAgent(name, cardURL string, optFns ...func(o *Options)) (*RemoteAgent, error) {
	if cardURL == "" {
		return nil, fmt.Errorf("card URL is required for peer %q", name)
	}
	opts := Options{
		Logger:           logging.NoOpLogger{},
		DiscoveryTimeout: 5 * time.Second,
		InvokeTimeout:    30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RemoteAgent{
		name:           name,
		cardURL:        strings.TrimRight(cardURL, "/"),
		discoverClient: &http.Client{Timeout: opts.DiscoveryTimeout},
		invokeClient:   &http.Client{Timeout: opts.InvokeTimeout},
		logger:         opts.Logger,
	}, nil
}

// Name returns the configured peer name.
func (r *RemoteAgent) Name() string { return r.name }

// Card returns the cached discovery card, if any.
func (r *RemoteAgent) Card() (*core.AgentCard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.card == nil {
		return nil, false
	}
	card := *r.card
	return &card, true
}

// Discover fetches the peer's well-known discovery document and caches it.
// Transport and parse errors propagate as PeerUnreachableError without
// retry; the cache is only replaced on success.
func (r *RemoteAgent) Discover(ctx context.Context) (*core.AgentCard, error) {
	body, err := probe.Do(ctx, r.discoverClient, r.cardURL, []string{wellKnownPath}, nil, probe.NextOn404)
	if err != nil {
		return nil, &core.PeerUnreachableError{Name: r.name, Err: err}
	}
	var card core.AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, &core.PeerUnreachableError{Name: r.name, Err: fmt.Errorf("invalid agent card: %w", err)}
	}
	if card.Name == "" {
		card.Name = r.name
	}
	// The card's own URL is authoritative for invocation; fall back to the
	// discovery address only when the card omits it.
	if card.URL == "" {
		card.URL = r.cardURL
	}

	r.mu.Lock()
	r.card = &card
	r.mu.Unlock()
	r.logger.Info("discovered peer agent", "peer", r.name, "url", card.URL)
	return &card, nil
}

// Invoke delegates a task to the peer, discovering the card first if none
// is cached. The POST goes to the card's advertised URL, which may differ
// from the discovery address. The response may be a {"response": ...}
// envelope or a raw body; either way the textual result is returned.
// Failures do not evict the cached card.
func (r *RemoteAgent) Invoke(ctx context.Context, task string) (string, error) {
	r.mu.Lock()
	card := r.card
	r.mu.Unlock()
	if card == nil {
		var err error
		if card, err = r.Discover(ctx); err != nil {
			return "", err
		}
	}

	payload := struct {
		Task string `json:"task"`
	}{Task: task}
	base := strings.TrimRight(card.URL, "/")
	body, err := probe.Do(ctx, r.invokeClient, base, []string{"/agent/invoke"}, payload, probe.NextOn404)
	if err != nil {
		return "", &core.PeerUnreachableError{Name: r.name, Err: err}
	}

	var envelope struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Response != nil {
		return *envelope.Response, nil
	}
	return string(body), nil
}
