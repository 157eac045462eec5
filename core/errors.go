package core

import (
	"fmt"
	"strings"
)

// DiscoveryError reports that a discovery sweep produced nothing: zero
// configured servers responded successfully. Partial failures during a sweep
// are logged, not raised; this error means total failure.
type DiscoveryError struct {
	Servers int
	Kind    string // "tool" or "peer"
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed to discover %ss from all %d servers", e.Kind, e.Servers)
}

// ToolNotFoundError reports a lookup for a tool name absent from the
// registry cache. Available carries the names currently cached so callers
// can surface them.
type ToolNotFoundError struct {
	Name      string
	Available []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found, available tools: [%s]", e.Name, strings.Join(e.Available, ", "))
}

// ToolExecutionError reports that a cached tool could not be executed on its
// owning server, either because a candidate path failed hard or because all
// candidate paths were exhausted.
type ToolExecutionError struct {
	Name   string
	Server string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to execute tool %q on %s: %v", e.Name, e.Server, e.Err)
	}
	return fmt.Sprintf("failed to execute tool %q on %s", e.Name, e.Server)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// PeerNotFoundError reports a delegation target that is not a configured
// peer of this agent.
type PeerNotFoundError struct {
	Name string
}

func (e *PeerNotFoundError) Error() string {
	return fmt.Sprintf("peer agent %q not found", e.Name)
}

// PeerUnreachableError reports a transport or protocol failure while
// discovering or invoking a configured peer.
type PeerUnreachableError struct {
	Name string
	Err  error
}

func (e *PeerUnreachableError) Error() string {
	return fmt.Sprintf("peer agent %q unreachable: %v", e.Name, e.Err)
}

func (e *PeerUnreachableError) Unwrap() error { return e.Err }

// ModelBackendError reports a failure from the model inference backend. The
// agent converts it into an apologetic turn rather than propagating it; the
// gateway only sees it when no text at all could be produced.
type ModelBackendError struct {
	Provider string
	Err      error
}

func (e *ModelBackendError) Error() string {
	return fmt.Sprintf("model backend (%s) error: %v", e.Provider, e.Err)
}

func (e *ModelBackendError) Unwrap() error { return e.Err }

// SessionNotFoundError reports a write or read against a session id this
// process has never created. Call sites treat it as soft: it is logged and
// the turn continues.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}
