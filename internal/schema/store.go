package schema

import (
	"context"
	"fmt"
	"os"
	"sync"

	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/jsonfile"
)

// FileStore keeps schemas.json in memory, rewriting the whole file per
// mutation. Same semantics as the other artifact stores: disk first, then
// memory; last write wins across processes.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	schemas []*CredentialSchema
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory collection with the file contents.
func (s *FileStore) Reload() error {
	var schemas []*CredentialSchema
	if err := jsonfile.Load(s.path, &schemas); err != nil {
		if os.IsNotExist(err) {
			schemas = nil
		} else {
			return fmt.Errorf("load schemas: %w", err)
		}
	}
	if schemas == nil {
		schemas = []*CredentialSchema{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas = schemas
	return nil
}

func (s *FileStore) List(_ context.Context) ([]*CredentialSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*CredentialSchema, 0, len(s.schemas))
	for _, sc := range s.schemas {
		out = append(out, sc.Clone())
	}
	return out, nil
}

func (s *FileStore) FindByID(_ context.Context, schemaID id.SchemaID) (*CredentialSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.schemas {
		if sc.ID == schemaID {
			return sc.Clone(), nil
		}
	}
	return nil, fmt.Errorf("schema %s: %w", schemaID, sentinel.ErrNotFound)
}

// FindByURI scans for the schema registered under the given URI. VCT documents
// reference schemas by URI, not by registry id.
func (s *FileStore) FindByURI(_ context.Context, uri string) (*CredentialSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.schemas {
		if sc.URI != "" && sc.URI == uri {
			return sc.Clone(), nil
		}
	}
	return nil, fmt.Errorf("schema %s: %w", uri, sentinel.ErrNotFound)
}

func (s *FileStore) Create(_ context.Context, schema *CredentialSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range s.schemas {
		if sc.ID == schema.ID {
			return fmt.Errorf("schema %s: %w", schema.ID, sentinel.ErrAlreadyUsed)
		}
	}

	next := append(s.schemas[:len(s.schemas):len(s.schemas)], schema.Clone())
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save schemas: %w", err)
	}
	s.schemas = next
	return nil
}

func (s *FileStore) Delete(_ context.Context, schemaID id.SchemaID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sc := range s.schemas {
		if sc.ID == schemaID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("schema %s: %w", schemaID, sentinel.ErrNotFound)
	}

	next := make([]*CredentialSchema, 0, len(s.schemas)-1)
	next = append(next, s.schemas[:idx]...)
	next = append(next, s.schemas[idx+1:]...)
	if err := jsonfile.Save(s.path, next); err != nil {
		return fmt.Errorf("save schemas: %w", err)
	}
	s.schemas = next
	return nil
}

func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schemas), nil
}
