package imagery

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"
)

// Session is the per-user state carried between requests. It is created by
// the session store and passed explicitly to every Service call.
type Session struct {
	mu sync.Mutex

	id         string
	coordinate *Coordinate
	record     *Record
	artifact   *Artifact
	closed     bool
	createdAt  time.Time
	lastSeen   time.Time
}

// NewSession creates an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		lastSeen:  now,
	}
}

func (s *Session) ID() string { return s.id }

// Touch records activity at now.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Coordinate returns the selected location, if any.
func (s *Session) Coordinate() (Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coordinate == nil {
		return Coordinate{}, false
	}
	return *s.coordinate, true
}

// SetCoordinate replaces the selected location.
func (s *Session) SetCoordinate(c Coordinate) {
	s.mu.Lock()
	s.coordinate = &c
	s.mu.Unlock()
}

// Record returns the last fetched record, if any.
func (s *Session) Record() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return Record{}, false
	}
	return *s.record, true
}

// SetRecord replaces the last fetched record.
func (s *Session) SetRecord(r Record) {
	s.mu.Lock()
	s.record = &r
	s.mu.Unlock()
}

// Artifact returns the current animation, if any.
func (s *Session) Artifact() (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifact == nil {
		return Artifact{}, false
	}
	return *s.artifact, true
}

// ReplaceArtifact points the session at a and deletes the superseded file.
// On a closed session a itself is deleted, since nothing would own it.
func (s *Session) ReplaceArtifact(a Artifact) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		removeArtifact(a.Path)
		return
	}
	prev := s.artifact
	s.artifact = &a
	s.mu.Unlock()

	if prev != nil && prev.Path != a.Path {
		removeArtifact(prev.Path)
	}
}

// Close releases the session's artifact file. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	prev := s.artifact
	s.artifact = nil
	s.mu.Unlock()

	if prev != nil {
		removeArtifact(prev.Path)
	}
}

// SessionView is the JSON representation of a session.
type SessionView struct {
	ID         string      `json:"id"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Record     *Record     `json:"record,omitempty"`
	Artifact   *Artifact   `json:"artifact,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	LastSeen   time.Time   `json:"lastSeen"`
}

// View returns a snapshot safe to serialise.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:        s.id,
		CreatedAt: s.createdAt,
		LastSeen:  s.lastSeen,
	}
	if s.coordinate != nil {
		c := *s.coordinate
		v.Coordinate = &c
	}
	if s.record != nil {
		r := *s.record
		v.Record = &r
	}
	if s.artifact != nil {
		a := *s.artifact
		v.Artifact = &a
	}
	return v
}

func removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ERROR: failed to remove artifact %s: %v", path, err)
	}
}
