// Package store persists registry assets in assets.json.
//
// Error Contract:
// All methods return sentinel errors from internal/sentinel:
//   - ErrNotFound when no asset matches the id
//   - ErrAlreadyUsed when creating an asset whose id is taken
//
// The service layer translates these to domain errors. Mutations land on disk
// before they are visible in memory.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"badgeforge/internal/asset/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/jsonfile"
)

// FileStore holds all assets in memory, backed by a single JSON file.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	assets []*models.Asset
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
	var assets []*models.Asset
	if err := jsonfile.Load(s.path, &assets); err != nil {
		if os.IsNotExist(err) {
			assets = nil
		} else {
			return fmt.Errorf("load %s: %w", s.path, err)
		}
	}
	if assets == nil {
		assets = []*models.Asset{}
	}

	s.mu.Lock()
	s.assets = assets
	s.mu.Unlock()
	return nil
}

// List returns all assets in file order.
func (s *FileStore) List(_ context.Context) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Asset, len(s.assets))
	for i, a := range s.assets {
		out[i] = a.Clone()
	}
	return out, nil
}

// FindByID returns the asset with the given id.
func (s *FileStore) FindByID(_ context.Context, assetID id.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.assets {
		if a.ID == assetID {
			return a.Clone(), nil
		}
	}
	return nil, fmt.Errorf("asset %s: %w", assetID, sentinel.ErrNotFound)
}

// Create appends a new asset. The id must be unused.
func (s *FileStore) Create(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.assets {
		if a.ID == asset.ID {
			return fmt.Errorf("asset %s: %w", asset.ID, sentinel.ErrAlreadyUsed)
		}
	}

	next := append(s.assets[:len(s.assets):len(s.assets)], asset.Clone())
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	s.assets = next
	return nil
}

// Update replaces the asset with the same id.
func (s *FileStore) Update(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.assets {
		if a.ID == asset.ID {
			next := make([]*models.Asset, len(s.assets))
			copy(next, s.assets)
			next[i] = asset.Clone()
			if err := jsonfile.Save(s.path, next); err != nil {
				return fmt.Errorf("save %s: %w", s.path, err)
			}
			s.assets = next
			return nil
		}
	}
	return fmt.Errorf("asset %s: %w", asset.ID, sentinel.ErrNotFound)
}

// Delete removes the asset with the given id.
func (s *FileStore) Delete(_ context.Context, assetID id.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.assets {
		if a.ID == assetID {
			next := make([]*models.Asset, 0, len(s.assets)-1)
			next = append(next, s.assets[:i]...)
			next = append(next, s.assets[i+1:]...)
			if err := jsonfile.Save(s.path, next); err != nil {
				return fmt.Errorf("save %s: %w", s.path, err)
			}
			s.assets = next
			return nil
		}
	}
	return fmt.Errorf("asset %s: %w", assetID, sentinel.ErrNotFound)
}

// Count returns the number of stored assets.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets), nil
}
