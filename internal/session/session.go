// Package session tracks per-conversation state: a bounded history of
// user/assistant turns plus the lock that serializes concurrent asks on
// the same conversation.
package session

import "sync"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// MaxTurns caps stored history per session. When an appended exchange
// would exceed the cap, the oldest turns are dropped pair-wise so the
// history always starts with a user turn.
const MaxTurns = 12

// Session holds the conversation history for a single session ID.
//
// Lock and Unlock serialize whole ask operations: two concurrent
// questions on the same session must not interleave their
// read-history / append-history windows. The inner mutex only protects
// the turns slice itself, so observers can snapshot history without
// waiting on an in-flight ask.
type Session struct {
	id string

	callMu sync.Mutex

	mu    sync.RWMutex
	turns []Turn
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Lock acquires the per-session call lock. Callers must hold it for the
// full duration of an ask, releasing via Unlock.
func (s *Session) Lock() { s.callMu.Lock() }

// Unlock releases the per-session call lock.
func (s *Session) Unlock() { s.callMu.Unlock() }

// Snapshot returns a defensive copy of the current history, oldest
// first.
func (s *Session) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Len returns the number of stored turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// AppendExchange records a completed question/answer pair, then trims
// the oldest turns pair-wise down to MaxTurns.
func (s *Session) AppendExchange(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: answer},
	)

	for len(s.turns) > MaxTurns {
		s.turns = s.turns[2:]
	}
}

// Registry hands out sessions by ID, creating them lazily. Sessions are
// never evicted; memory is bounded by MaxTurns per session.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = &Session{id: id}
		r.sessions[id] = s
	}
	return s
}

// Len returns the number of known sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
