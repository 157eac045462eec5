package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/axsaucedo/agentrun/core"
	"github.com/axsaucedo/agentrun/logging"
)

// Service is a volatile in-process session store. It is safe for concurrent
// access, but calls against the same session are not serialized with each
// other: two concurrent writers to one session may interleave their appends.
// Callers needing strict per-session ordering must serialize themselves.
//
// Events within a session are strictly append-ordered; there is no update
// or delete path for events. Sessions live for the process lifetime.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	order    []string // session ids in creation order

	logger logging.Logger
}

// Options configures the memory service.
type Options struct {
	Logger logging.Logger
}

// NewService constructs an empty memory service.
func NewService(optFns ...func(o *Options)) *Service {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		sessions: make(map[string]*core.Session),
		logger:   opts.Logger,
	}
}

// CreateSession stores a new empty session and returns its id. When
// sessionID is empty a fresh one is generated. Creating an id that already
// exists resets that session to empty.
func (s *Service) CreateSession(appName, userID, sessionID string) string {
	if sessionID == "" {
		sessionID = newSessionID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionID]; !exists {
		s.order = append(s.order, sessionID)
	}
	s.sessions[sessionID] = core.NewSession(sessionID, appName, userID)
	s.logger.Debug("session created", "session_id", sessionID)
	return sessionID
}

// AddEvent appends an event to a session and bumps its update timestamp.
// Writing to an unknown session is rejected with a SessionNotFoundError:
// conversational turns must never be dropped silently, and auto-creating a
// session here would hide a caller bug. The error is soft by convention:
// call sites log it and continue the turn.
func (s *Service) AddEvent(sessionID string, event core.MemoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.logger.Warn("event for unknown session dropped", "session_id", sessionID, "event_type", string(event.Type))
		return &core.SessionNotFoundError{ID: sessionID}
	}
	sess.Events = append(sess.Events, event)
	sess.Updated = event.Timestamp
	return nil
}

// Session returns a clone of the session, or false if unknown.
func (s *Service) Session(sessionID string) (*core.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// Events returns the ordered event list for a session, or an empty slice if
// the session is unknown.
func (s *Service) Events(sessionID string) []core.MemoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return []core.MemoryEvent{}
	}
	events := make([]core.MemoryEvent, len(sess.Events))
	copy(events, sess.Events)
	return events
}

// AllEvents returns every event across all sessions, grouped by session in
// creation order. Used by the memory introspection endpoint.
func (s *Service) AllEvents() []core.MemoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := []core.MemoryEvent{}
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok {
			events = append(events, sess.Events...)
		}
	}
	return events
}

// ListSessions returns all session ids in creation order.
func (s *Service) ListSessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// DeleteSession removes a session and reports whether it existed.
func (s *Service) DeleteSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	for i, id := range s.order {
		if id == sessionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// DefaultContextWindow is the number of trailing events rendered into model
// context when the caller does not override it.
const DefaultContextWindow = 10

// BuildContext renders the last window events of a session as role-tagged
// lines, followed by the currently known tool and peer names. The result is
// injected as auxiliary context ahead of the user message on each model
// call. An unknown or empty session with no tools or peers yields "".
func (s *Service) BuildContext(sessionID string, window int, toolNames, peerNames []string) string {
	if window <= 0 {
		window = DefaultContextWindow
	}
	events := s.Events(sessionID)
	if len(events) > window {
		events = events[len(events)-window:]
	}

	var b strings.Builder
	if len(events) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, ev := range events {
			fmt.Fprintf(&b, "[%s]: %s\n", roleTag(ev.Type), ev.Content)
		}
	}
	if len(toolNames) > 0 {
		fmt.Fprintf(&b, "Available tools: %s\n", strings.Join(toolNames, ", "))
	}
	if len(peerNames) > 0 {
		fmt.Fprintf(&b, "Available peer agents: %s\n", strings.Join(peerNames, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func roleTag(t core.EventType) string {
	switch t {
	case core.EventUserMessage:
		return "user"
	case core.EventAgentResponse:
		return "assistant"
	default:
		return string(t)
	}
}

func newSessionID() string {
	return "session_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
