package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"badgeforge/internal/auth/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested session does not exist
// - Return nil for successful operations
// InMemorySessionStore stores sessions in memory. Sessions do not survive a
// restart; the editor is a short-lived admin tool and re-login is cheap.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

// New constructs an empty in-memory session store.
func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

// RevokeSession marks the session revoked. Returns ErrNotFound for unknown
// sessions and ErrInvalidState when it was already revoked.
func (s *InMemorySessionStore) RevokeSession(_ context.Context, sessionID id.SessionID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if !session.Revoke(now) {
		return fmt.Errorf("session already revoked: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// AdvanceLastSeen updates the session's activity timestamp.
func (s *InMemorySessionStore) AdvanceLastSeen(_ context.Context, sessionID id.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	session.RecordActivity(at)
	return nil
}

// DeleteExpiredSessions removes all sessions that have expired as of the given time.
// The time parameter is injected for testability (no hidden time.Now() calls).
func (s *InMemorySessionStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deletedCount := 0
	for key, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, key)
			deletedCount++
		}
	}

	return deletedCount, nil
}

// Count returns the number of stored sessions, including revoked ones that
// have not yet been swept.
func (s *InMemorySessionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
