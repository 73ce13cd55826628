// Package store is the in-memory registry of intake sessions.
package store

import (
	"sync"

	"loan-intake/internal/common/metrics"
	"loan-intake/internal/models"
)

// Store owns every live session, keyed by session id. Sessions live for the
// lifetime of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func New() *Store {
	return &Store{sessions: make(map[string]*models.Session)}
}

// GetOrCreate returns the session for id, creating it at START on first use.
// The boolean reports whether it was created.
func (s *Store) GetOrCreate(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, false
	}
	sess := models.NewSession(id)
	s.sessions[id] = sess
	metrics.IntakeSessionsActive.Set(float64(len(s.sessions)))
	return sess, true
}

// Get returns an existing session.
func (s *Store) Get(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Reset restores one session to its initial state. It waits for any request
// in flight on that session. Resetting an unknown id is a no-op.
func (s *Store) Reset(id string) bool {
	sess, ok := s.Get(id)
	if !ok {
		return false
	}
	sess.Lock()
	sess.Clear()
	sess.Unlock()
	return true
}

// ResetAll restores every session to its initial state. Entries stay in the
// registry, so a request that looked a session up before the reset still
// mutates the session later lookups return. Each is cleared under its own
// lock, after any request in flight on it.
func (s *Store) ResetAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		sess.Lock()
		sess.Clear()
		sess.Unlock()
	}
	return len(s.sessions)
}

// Len returns the number of sessions in the registry.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
