package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes a memory event. The set is closed: every event a
// session can hold is one of these kinds.
type EventType string

const (
	// EventUserMessage records an inbound user (or caller) message.
	EventUserMessage EventType = "user_message"
	// EventAgentResponse records the full text of a completed agent turn.
	EventAgentResponse EventType = "agent_response"
	// EventToolCall records the invocation of a remote tool.
	EventToolCall EventType = "tool_call"
	// EventDelegationRequest records a task being handed to a peer agent.
	// Only the coordinating agent writes this into its own memory; the
	// peer's turn is recorded in the peer process, never here.
	EventDelegationRequest EventType = "delegation_request"
	// EventDelegationResponse records the peer's answer to a delegation.
	EventDelegationResponse EventType = "delegation_response"
	// EventError records a failure that was absorbed into the turn.
	EventError EventType = "error"
)

// MemoryEvent is a single immutable entry in a session's event log.
type MemoryEvent struct {
	ID        string            `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"event_type"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMemoryEvent creates an event of the given type stamped with a fresh
// UUID and a UTC timestamp. Metadata may be nil.
func NewMemoryEvent(eventType EventType, content string, metadata map[string]string) MemoryEvent {
	return MemoryEvent{
		ID:        "event_" + uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Content:   content,
		Metadata:  metadata,
	}
}

// NewID generates a unique identifier usable for sessions, completions and
// other correlation handles.
func NewID() string { return uuid.NewString() }
