package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"badgeforge/internal/badge/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/jsonfile"
)

// Error Contract:
// - ErrNotFound when the requested badge does not exist
// - ErrAlreadyUsed when creating a badge whose id is taken
// - wrapped errors for file I/O failures

// FileStore keeps badges.json in memory and rewrites the whole file on every
// mutation. Mutations land on disk before they are visible in memory, so a
// failed write never leaves the two out of sync. Cross-process writers are not
// coordinated: last write wins.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	badges []*models.BadgeDefinition
}

// NewFileStore loads the store from path. A missing file starts an empty
// collection; it is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory collection with the file contents. Called at
// construction and by the assets watcher after external edits.
func (s *FileStore) Reload() error {
	var badges []*models.BadgeDefinition
	if err := jsonfile.Load(s.path, &badges); err != nil {
		if os.IsNotExist(err) {
			badges = nil
		} else {
			return fmt.Errorf("load badges: %w", err)
		}
	}
	if badges == nil {
		badges = []*models.BadgeDefinition{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = badges
	return nil
}

// List returns all badges in file order.
func (s *FileStore) List(_ context.Context) ([]*models.BadgeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.BadgeDefinition, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, b.Clone())
	}
	return out, nil
}

// FindByID scans for the badge with the given id.
func (s *FileStore) FindByID(_ context.Context, badgeID id.BadgeID) (*models.BadgeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.badges {
		if b.ID == badgeID {
			return b.Clone(), nil
		}
	}
	return nil, fmt.Errorf("badge %s: %w", badgeID, sentinel.ErrNotFound)
}

// Create appends the badge and rewrites the file.
func (s *FileStore) Create(_ context.Context, badge *models.BadgeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.badges {
		if b.ID == badge.ID {
			return fmt.Errorf("badge %s: %w", badge.ID, sentinel.ErrAlreadyUsed)
		}
	}

	next := append(s.badges[:len(s.badges):len(s.badges)], badge.Clone())
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save badges: %w", err)
	}
	s.badges = next
	return nil
}

// Update replaces the stored badge wholesale.
func (s *FileStore) Update(_ context.Context, badge *models.BadgeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, b := range s.badges {
		if b.ID == badge.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("badge %s: %w", badge.ID, sentinel.ErrNotFound)
	}

	next := make([]*models.BadgeDefinition, len(s.badges))
	copy(next, s.badges)
	next[idx] = badge.Clone()
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save badges: %w", err)
	}
	s.badges = next
	return nil
}

// Delete removes the badge and rewrites the file.
func (s *FileStore) Delete(_ context.Context, badgeID id.BadgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, b := range s.badges {
		if b.ID == badgeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("badge %s: %w", badgeID, sentinel.ErrNotFound)
	}

	next := make([]*models.BadgeDefinition, 0, len(s.badges)-1)
	next = append(next, s.badges[:idx]...)
	next = append(next, s.badges[idx+1:]...)
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save badges: %w", err)
	}
	s.badges = next
	return nil
}

// Count returns the number of stored badges.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.badges), nil
}
