package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"badgeforge/internal/orbit/models"
	"badgeforge/internal/sentinel"
	"badgeforge/pkg/platform/jsonfile"
)

// Error Contract:
// - ErrNotFound when no settings file has been saved
// - wrapped errors for file I/O failures

// FileStore holds the single settings.json document. Unlike the artifact
// stores this is not a collection: the file either exists or it does not,
// and deleting it is how the editor falls back to environment configuration.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	settings *models.Settings
}

// NewFileStore loads the store from path. A missing file is a valid state.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory document with the file contents. Called at
// construction and by the assets watcher after external edits.
func (s *FileStore) Reload() error {
	var settings models.Settings
	err := jsonfile.Load(s.path, &settings)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		s.settings = &settings
	case os.IsNotExist(err):
		s.settings = nil
	default:
		return fmt.Errorf("load orbit settings: %w", err)
	}
	return nil
}

// Get returns the saved settings, or ErrNotFound when no file exists.
func (s *FileStore) Get(_ context.Context) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, fmt.Errorf("orbit settings: %w", sentinel.ErrNotFound)
	}
	return s.settings.Clone(), nil
}

// Save writes the settings file and then updates memory, so a failed write
// never leaves the two out of sync.
func (s *FileStore) Save(_ context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := jsonfile.Save(s.path, settings); err != nil {
		return fmt.Errorf("save orbit settings: %w", err)
	}
	s.settings = settings.Clone()
	return nil
}

// Delete removes the settings file. Deleting settings that were never saved
// is ErrNotFound.
func (s *FileStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			s.settings = nil
			return fmt.Errorf("orbit settings: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("delete orbit settings: %w", err)
	}
	s.settings = nil
	return nil
}
