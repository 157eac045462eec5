package core

import "time"

// Session is an append-only conversational container owned by exactly one
// agent process. Events are totally ordered by append sequence; nothing is
// ever reordered or deleted. The struct itself carries no lock: concurrency
// control is the responsibility of the owning memory service.
type Session struct {
	ID      string        `json:"id"`
	AppName string        `json:"app_name"`
	UserID  string        `json:"user_id"`
	Events  []MemoryEvent `json:"events"`
	Created time.Time     `json:"created_at"`
	Updated time.Time     `json:"updated_at"`
}

// NewSession creates an empty session with creation and update timestamps
// set to now.
func NewSession(id, appName, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:      id,
		AppName: appName,
		UserID:  userID,
		Events:  []MemoryEvent{},
		Created: now,
		Updated: now,
	}
}

// Clone returns a deep copy safe for independent use by callers.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Events = make([]MemoryEvent, len(s.Events))
	copy(clone.Events, s.Events)
	return &clone
}
