package nav

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long an idle session keeps its state.
const DefaultTTL = 12 * time.Hour

// SessionStore persists navigation state between requests. Load never fails
// for unknown, expired or tampered tokens: it returns New() instead. Save
// returns the token the client must present next time, which may differ
// from the one passed in.
type SessionStore interface {
	Load(ctx context.Context, token string) (State, error)
	Save(ctx context.Context, token string, st State) (string, error)
}

// MemorySessionStore keeps state in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	state  State
	expiry time.Time
}

// NewMemorySessionStore constructs an in-memory session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Load(_ context.Context, token string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return New(), nil
	}
	if s.now().After(sess.expiry) {
		delete(s.sessions, token)
		return New(), nil
	}
	return sess.state, nil
}

func (s *MemorySessionStore) Save(_ context.Context, token string, st State) (string, error) {
	token = sessionID(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.sessions {
		if now.After(v.expiry) {
			delete(s.sessions, k)
		}
	}
	s.sessions[token] = memorySession{state: st.Normalize(), expiry: now.Add(s.ttl)}
	return token, nil
}

// sessionID keeps a well-formed token and mints a new one otherwise.
func sessionID(token string) string {
	token = strings.TrimSpace(token)
	if _, err := uuid.Parse(token); err == nil {
		return token
	}
	return uuid.NewString()
}

var errSessionStoreConfig = errors.New("session store misconfigured")
