package conversation

import (
	"context"
	"sync"
	"time"
)

// SessionStore persists conversation sessions keyed by sender id.
// Load returns (nil, nil) when the sender has no live session.
type SessionStore interface {
	Load(ctx context.Context, sender string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, sender string) error
}

// MemorySessionStore keeps sessions in process memory. Entries idle for
// longer than ttl are treated as absent and pruned lazily.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Load(_ context.Context, sender string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sender]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if sess.Expired(s.now(), s.ttl) {
		s.mu.Lock()
		if cur, ok := s.sessions[sender]; ok && cur == sess {
			delete(s.sessions, sender)
		}
		s.mu.Unlock()
		return nil, nil
	}
	return sess.clone(), nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Sender] = sess.clone()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sender)
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
