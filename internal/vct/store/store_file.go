// Package store persists VCT documents in a single JSON file, mirroring the
// flat-file layout of the governance repository the editor publishes to.
//
// Error Contract:
// All methods return sentinel errors from internal/sentinel:
//   - ErrNotFound when no document matches the vct URI
//   - ErrAlreadyUsed when creating a document whose vct URI is taken
//
// The service layer translates these to domain errors. Mutations land on disk
// before they are visible in memory, so a failed write never leaves the two
// out of sync.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"badgeforge/internal/sentinel"
	"badgeforge/internal/vct/models"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/jsonfile"
)

// FileStore holds all VCT documents in memory, backed by vcts.json.
type FileStore struct {
	mu   sync.RWMutex
	path string
	vcts []*models.VCT
}

// NewFileStore loads the file at path, or starts empty when it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory set with the file contents. Used at startup
// and by the file watcher when the file changes on disk.
func (s *FileStore) Reload() error {
	var vcts []*models.VCT
	if err := jsonfile.Load(s.path, &vcts); err != nil {
		if os.IsNotExist(err) {
			vcts = nil
		} else {
			return fmt.Errorf("load %s: %w", s.path, err)
		}
	}
	if vcts == nil {
		vcts = []*models.VCT{}
	}

	s.mu.Lock()
	s.vcts = vcts
	s.mu.Unlock()
	return nil
}

// List returns all documents in file order.
func (s *FileStore) List(_ context.Context) ([]*models.VCT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.VCT, len(s.vcts))
	for i, v := range s.vcts {
		out[i] = v.Clone()
	}
	return out, nil
}

// FindByID returns the document identified by the vct URI.
func (s *FileStore) FindByID(_ context.Context, vctID id.VCTID) (*models.VCT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.vcts {
		if v.VCT == vctID {
			return v.Clone(), nil
		}
	}
	return nil, fmt.Errorf("vct %s: %w", vctID, sentinel.ErrNotFound)
}

// Create appends a new document. The vct URI must be unused.
func (s *FileStore) Create(_ context.Context, vct *models.VCT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.vcts {
		if v.VCT == vct.VCT {
			return fmt.Errorf("vct %s: %w", vct.VCT, sentinel.ErrAlreadyUsed)
		}
	}

	next := append(s.vcts[:len(s.vcts):len(s.vcts)], vct.Clone())
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	s.vcts = next
	return nil
}

// Update replaces the document with the same vct URI.
func (s *FileStore) Update(_ context.Context, vct *models.VCT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, v := range s.vcts {
		if v.VCT == vct.VCT {
			next := make([]*models.VCT, len(s.vcts))
			copy(next, s.vcts)
			next[i] = vct.Clone()
			if err := jsonfile.Save(s.path, next); err != nil {
				return fmt.Errorf("save %s: %w", s.path, err)
			}
			s.vcts = next
			return nil
		}
	}
	return fmt.Errorf("vct %s: %w", vct.VCT, sentinel.ErrNotFound)
}

// Delete removes the document identified by the vct URI.
func (s *FileStore) Delete(_ context.Context, vctID id.VCTID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, v := range s.vcts {
		if v.VCT == vctID {
			next := make([]*models.VCT, 0, len(s.vcts)-1)
			next = append(next, s.vcts[:i]...)
			next = append(next, s.vcts[i+1:]...)
			if err := jsonfile.Save(s.path, next); err != nil {
				return fmt.Errorf("save %s: %w", s.path, err)
			}
			s.vcts = next
			return nil
		}
	}
	return fmt.Errorf("vct %s: %w", vctID, sentinel.ErrNotFound)
}

// Count returns the number of stored documents.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vcts), nil
}
