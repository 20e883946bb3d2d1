package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/requestcontext"
)

type Service struct {
	store  *FileStore
	logger *slog.Logger
}

func NewService(store *FileStore, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

func (s *Service) List(ctx context.Context) ([]*CredentialSchema, error) {
	schemas, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list schemas")
	}
	return schemas, nil
}

func (s *Service) Get(ctx context.Context, schemaID id.SchemaID) (*CredentialSchema, error) {
	schema, err := s.store.FindByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "schema not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load schema")
	}
	return schema, nil
}

// GetByURI returns the schema registered under the given URI. Credential type
// documents reference schemas by URI rather than by registry id.
func (s *Service) GetByURI(ctx context.Context, uri string) (*CredentialSchema, error) {
	schema, err := s.store.FindByURI(ctx, uri)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "schema not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load schema")
	}
	return schema, nil
}

// PropertyNames returns the property names of the schema registered under uri.
// This is the lookup the VCT mapping check runs on.
func (s *Service) PropertyNames(ctx context.Context, uri string) ([]string, error) {
	schema, err := s.GetByURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	return schema.PropertyNames(), nil
}

// Register stores a new schema. Properties must have unique non-empty names.
func (s *Service) Register(ctx context.Context, schema *CredentialSchema) (*CredentialSchema, error) {
	if schema.ID == "" {
		if slug := platformstrings.Slugify(schema.Name); slug != "" {
			schema.ID = id.SchemaID(slug)
		} else {
			schema.ID = id.SchemaID(uuid.NewString())
		}
	} else if _, err := id.ParseSchemaID(schema.ID.String()); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(schema.Properties))
	for i, p := range schema.Properties {
		if p.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("properties[%d]: name is required", i))
		}
		if _, dup := seen[p.Name]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate property %q", p.Name))
		}
		seen[p.Name] = struct{}{}
	}

	schema.CreatedAt = requestcontext.Now(ctx)

	if err := s.store.Create(ctx, schema); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "schema id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "register schema")
	}

	s.logger.InfoContext(ctx, "schema registered",
		"schema_id", schema.ID,
		"properties", len(schema.Properties),
		"request_id", requestcontext.RequestID(ctx),
	)
	return schema, nil
}

func (s *Service) Delete(ctx context.Context, schemaID id.SchemaID) error {
	if err := s.store.Delete(ctx, schemaID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "schema not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete schema")
	}
	return nil
}
