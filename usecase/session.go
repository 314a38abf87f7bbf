package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// Session holds one conversation's memory: the rolling history, the
// fact cache and the last reconciled to-do list. Sessions never share
// state; each one is mutated only by the turn currently holding its
// lock.
type Session struct {
	ID string

	mu         sync.Mutex
	history    []domain.ChatMessage
	facts      map[string]domain.Fact
	todos      []domain.TodoItem
	lastActive time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID: id,
		history: []domain.ChatMessage{
			{Role: domain.SystemRole, Content: SystemPrompt},
		},
		facts:      make(map[string]domain.Fact),
		lastActive: time.Now(),
	}
}

// tryAcquire claims the session for one turn. It returns false when
// another turn is already in flight; callers surface ErrSessionBusy.
func (s *Session) tryAcquire() bool {
	return s.mu.TryLock()
}

func (s *Session) release() {
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// The accessors below assume the session lock is held by the caller.

func (s *Session) appendMessage(msg domain.ChatMessage) {
	s.history = append(s.history, msg)
}

func (s *Session) historyCopy() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// truncate drops the oldest non-system messages until at most max
// remain. The system instruction at index 0 always survives.
func (s *Session) truncate(max int) {
	if max < 1 || len(s.history) <= max {
		return
	}
	drop := len(s.history) - max
	kept := make([]domain.ChatMessage, 0, max)
	kept = append(kept, s.history[0])
	kept = append(kept, s.history[1+drop:]...)
	s.history = kept
}

func (s *Session) fact(key string) (domain.Fact, bool) {
	f, ok := s.facts[key]
	return f, ok
}

func (s *Session) setFact(key string, f domain.Fact) {
	s.facts[key] = f
}

func (s *Session) factsCopy() map[string]domain.Fact {
	out := make(map[string]domain.Fact, len(s.facts))
	for k, v := range s.facts {
		out[k] = v
	}
	return out
}

func (s *Session) setTodos(todos []domain.TodoItem) {
	s.todos = todos
}

func (s *Session) todosCopy() []domain.TodoItem {
	out := make([]domain.TodoItem, len(s.todos))
	copy(out, s.todos)
	return out
}

// Exported accessors take the session lock; they are for use outside
// an in-flight turn (transports, tests).

// Fact returns the stored fact for key.
func (s *Session) Fact(key string) (domain.Fact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fact(key)
}

// History returns a copy of the conversation history.
func (s *Session) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyCopy()
}

// Todos returns a copy of the last reconciled to-do list.
func (s *Session) Todos() []domain.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todosCopy()
}

// SessionManager keys sessions by ID. Session identity is supplied by
// the transport layer; unknown IDs are materialized on first use so a
// client holding a fresh token can start talking immediately.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create registers a new session and returns its ID.
func (m *SessionManager) Create() *Session {
	sess := newSession(uuid.NewString())
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session for id, or ErrSessionNotFound.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate returns the session for id, creating it when unseen.
func (m *SessionManager) GetOrCreate(id string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess
	}
	sess = newSession(id)
	m.sessions[id] = sess
	return sess
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
