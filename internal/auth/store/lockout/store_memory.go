package lockout

import (
	"context"
	"sync"
	"time"

	"badgeforge/internal/auth/models"
)

// InMemoryLockoutStore tracks failed login attempts keyed by username+IP.
type InMemoryLockoutStore struct {
	mu      sync.RWMutex
	records map[string]*models.Lockout
}

func New() *InMemoryLockoutStore {
	return &InMemoryLockoutStore{records: make(map[string]*models.Lockout)}
}

// Get returns the lockout record for the key, or nil when none exists.
func (s *InMemoryLockoutStore) Get(_ context.Context, key string) (*models.Lockout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, exists := s.records[key]; exists {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

// RecordFailure increments the failure count for the key and returns the
// updated record.
func (s *InMemoryLockoutStore) RecordFailure(_ context.Context, key string, now time.Time) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.records[key]; exists {
		existing.FailureCount++
		existing.LastFailureAt = now
		copied := *existing
		return &copied, nil
	}

	record := &models.Lockout{
		Key:           key,
		FailureCount:  1,
		LastFailureAt: now,
	}
	s.records[key] = record
	copied := *record
	return &copied, nil
}

// Update replaces the stored record for record.Key.
func (s *InMemoryLockoutStore) Update(_ context.Context, record *models.Lockout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.Key] = &copied
	return nil
}

// Clear removes the lockout record for the key.
func (s *InMemoryLockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// DeleteStale removes records whose last failure predates the cutoff and that
// hold no active lock. Keeps the map from growing with one-off typos.
func (s *InMemoryLockoutStore) DeleteStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key, record := range s.records {
		if record.LastFailureAt.Before(cutoff) && !record.IsLocked(cutoff) {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}
