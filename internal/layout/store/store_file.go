// Package store persists zone templates in zone-templates.json.
//
// Error Contract:
// All methods return sentinel errors from internal/sentinel:
//   - ErrNotFound when no template matches the id
//   - ErrAlreadyUsed when creating a template whose id is taken
//
// The service layer translates these to domain errors. Mutations land on disk
// before they are visible in memory.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"badgeforge/internal/layout/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/jsonfile"
)

// FileStore holds all zone templates in memory, backed by a single JSON file.
type FileStore struct {
	mu        sync.RWMutex
	path      string
	templates []*models.ZoneTemplate
}

// NewFileStore loads the file at path, or starts empty when it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory set with the file contents.
func (s *FileStore) Reload() error {
	var templates []*models.ZoneTemplate
	if err := jsonfile.Load(s.path, &templates); err != nil {
		if os.IsNotExist(err) {
			templates = nil
		} else {
			return fmt.Errorf("load %s: %w", s.path, err)
		}
	}
	if templates == nil {
		templates = []*models.ZoneTemplate{}
	}

	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
	return nil
}

// List returns all templates in file order.
func (s *FileStore) List(_ context.Context) ([]*models.ZoneTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ZoneTemplate, len(s.templates))
	for i, t := range s.templates {
		out[i] = t.Clone()
	}
	return out, nil
}

// FindByID returns the template with the given id.
func (s *FileStore) FindByID(_ context.Context, templateID id.TemplateID) (*models.ZoneTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates {
		if t.ID == templateID {
			return t.Clone(), nil
		}
	}
	return nil, fmt.Errorf("zone template %s: %w", templateID, sentinel.ErrNotFound)
}

// Create appends a new template. The id must be unused.
func (s *FileStore) Create(_ context.Context, template *models.ZoneTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.templates {
		if t.ID == template.ID {
			return fmt.Errorf("zone template %s: %w", template.ID, sentinel.ErrAlreadyUsed)
		}
	}

	next := append(s.templates[:len(s.templates):len(s.templates)], template.Clone())
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	s.templates = next
	return nil
}

// Update replaces the template with the same id.
func (s *FileStore) Update(_ context.Context, template *models.ZoneTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.templates {
		if t.ID == template.ID {
			next := make([]*models.ZoneTemplate, len(s.templates))
			copy(next, s.templates)
			next[i] = template.Clone()
			if err := jsonfile.Save(s.path, next); err != nil {
				return fmt.Errorf("save %s: %w", s.path, err)
			}
			s.templates = next
			return nil
		}
	}
	return fmt.Errorf("zone template %s: %w", template.ID, sentinel.ErrNotFound)
}

// Delete removes the template with the given id.
func (s *FileStore) Delete(_ context.Context, templateID id.TemplateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.templates {
		if t.ID == templateID {
			next := make([]*models.ZoneTemplate, 0, len(s.templates)-1)
			next = append(next, s.templates[:i]...)
			next = append(next, s.templates[i+1:]...)
			if err := jsonfile.Save(s.path, next); err != nil {
				return fmt.Errorf("save %s: %w", s.path, err)
			}
			s.templates = next
			return nil
		}
	}
	return fmt.Errorf("zone template %s: %w", templateID, sentinel.ErrNotFound)
}

// Count returns the number of stored templates.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates), nil
}
