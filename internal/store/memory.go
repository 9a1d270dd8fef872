package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

var (
	// ErrNotFound is returned when no session exists for an id.
	ErrNotFound = errors.New("session not found")
)

// SessionStore is a concurrency-safe in-memory registry of sessions.
type SessionStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*imagery.Session

	now func() time.Time
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]*imagery.Session),
		now:  time.Now,
	}
}

// Create starts a new session with a random id.
func (s *SessionStore) Create() *imagery.Session {
	sess := imagery.NewSession(uuid.NewString(), s.now().UTC())

	s.mu.Lock()
	s.data[sess.ID()] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id and marks it active.
func (s *SessionStore) Get(id string) (*imagery.Session, error) {
	s.mu.RLock()
	sess, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	sess.Touch(s.now().UTC())
	return sess, nil
}

// End removes the session and deletes its artifact.
func (s *SessionStore) End(id string) error {
	s.mu.Lock()
	sess, ok := s.data[id]
	delete(s.data, id)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	sess.Close()
	return nil
}

// Expire ends every session idle for longer than maxIdle and returns how
// many were removed. A non-positive maxIdle disables expiry.
func (s *SessionStore) Expire(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := s.now().UTC().Add(-maxIdle)

	var expired []*imagery.Session
	s.mu.Lock()
	for id, sess := range s.data {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.data, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close ends every session.
func (s *SessionStore) Close() {
	s.mu.Lock()
	all := s.data
	s.data = make(map[string]*imagery.Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
}
