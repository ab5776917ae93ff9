// Package flow implements the per-user session state machine driving every
// multi-step interaction: registration, profile editing, task creation and
// deletion, and GPT chat mode.
package flow

import (
	"sync"

	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/observability"
)

// Session is the transient per-user conversation state. It is never
// persisted: a restart loses in-flight flows and chat context but not
// committed profiles or reminders.
type Session struct {
	UserID  string
	State   models.StateType
	Pending map[models.DataKey]string
	History []models.ChatMessage
}

// SetPending records a collected field value for the current flow.
func (s *Session) SetPending(key models.DataKey, value string) {
	if s.Pending == nil {
		s.Pending = make(map[models.DataKey]string)
	}
	s.Pending[key] = value
}

// PendingValue returns the collected value for the key, or "".
func (s *Session) PendingValue(key models.DataKey) string {
	return s.Pending[key]
}

// ClearFlow returns the session to Idle and discards pending fields. Chat
// history survives; it is cleared separately.
func (s *Session) ClearFlow() {
	s.State = models.StateIdle
	s.Pending = nil
}

// ClearHistory drops the GPT chat history.
func (s *Session) ClearHistory() {
	s.History = nil
}

// SessionManager owns every in-memory session and the per-user dispatch
// locks. Each user's session is exclusively owned by that user's event
// stream: Acquire serializes event handling per user, so session fields need
// no further locking while the user lock is held.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
	metrics  *observability.Metrics
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(metrics *observability.Metrics) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		metrics:  metrics,
	}
}

// Acquire takes the user's dispatch lock and returns the session plus a
// release function. No two events for the same user are processed
// concurrently.
func (m *SessionManager) Acquire(userID string) (*Session, func()) {
	m.mu.Lock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	session, ok := m.sessions[userID]
	if !ok {
		session = &Session{UserID: userID, State: models.StateIdle}
		m.sessions[userID] = session
		m.metrics.SetActiveSessions(len(m.sessions))
	}
	m.mu.Unlock()

	lock.Lock()
	return session, lock.Unlock
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
