package draft

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lead-import-api/internal/models"
)

// ErrNoFile is returned by mapping operations when no file is waiting to be mapped
var ErrNoFile = errors.New("no file is awaiting mapping")

// Store keeps wizard sessions in memory and expires idle ones
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	lastUsed map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a session store. ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		lastUsed: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session
func (s *Store) Create() *Session {
	session := newSession(uuid.New().String(), s.now())

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.lastUsed[session.ID] = session.CreatedAt
	s.mu.Unlock()
	return session
}

// Get returns a live session or models.ErrNotFound
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if s.expired(id) {
		s.remove(id)
		return nil, models.ErrNotFound
	}
	return session, nil
}

// Touch marks a session as used. The caller holds the session lock.
func (s *Store) Touch(session *Session) {
	now := s.now()
	session.UpdatedAt = now

	s.mu.Lock()
	if _, ok := s.sessions[session.ID]; ok {
		s.lastUsed[session.ID] = now
	}
	s.mu.Unlock()
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	s.remove(id)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.sessions {
		if s.expired(id) {
			s.remove(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(id string) bool {
	return s.ttl > 0 && s.now().Sub(s.lastUsed[id]) > s.ttl
}

func (s *Store) remove(id string) {
	delete(s.sessions, id)
	delete(s.lastUsed, id)
}
