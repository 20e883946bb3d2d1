// Package service implements the VCT domain logic: document validation, the
// schema-mapping invariant, and translation of store sentinels into domain
// errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"badgeforge/internal/sentinel"
	"badgeforge/internal/vct/models"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/requestcontext"
)

// Store is the persistence interface the service depends on.
type Store interface {
	List(ctx context.Context) ([]*models.VCT, error)
	FindByID(ctx context.Context, vctID id.VCTID) (*models.VCT, error)
	Create(ctx context.Context, vct *models.VCT) error
	Update(ctx context.Context, vct *models.VCT) error
	Delete(ctx context.Context, vctID id.VCTID) error
}

// SchemaRegistry resolves locally registered credential schemas. PropertyNames
// returns a CodeNotFound domain error when no schema is registered under the
// given URI.
type SchemaRegistry interface {
	PropertyNames(ctx context.Context, uri string) ([]string, error)
}

type Service struct {
	store    Store
	registry SchemaRegistry
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates the VCT service. The registry may be nil, in which case every
// mapping check is skipped with a warning.
func New(store Store, registry SchemaRegistry, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{store: store, registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns all VCT documents.
func (s *Service) List(ctx context.Context) ([]*models.VCT, error) {
	vcts, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list vcts")
	}
	return vcts, nil
}

// Get returns a single document by its vct URI.
func (s *Service) Get(ctx context.Context, vctID id.VCTID) (*models.VCT, error) {
	vct, err := s.store.FindByID(ctx, vctID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vct not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load vct")
	}
	return vct, nil
}

// Create validates and stores a new document. The returned warnings are
// non-fatal findings the caller should surface, currently only the skipped
// mapping check for unregistered schemas.
func (s *Service) Create(ctx context.Context, vct *models.VCT) (*models.VCT, []string, error) {
	if _, err := id.ParseVCTID(vct.VCT.String()); err != nil {
		return nil, nil, err
	}
	normalizeClaims(vct)
	if err := validateDocument(vct); err != nil {
		return nil, nil, err
	}
	warnings, err := s.checkMapping(ctx, vct)
	if err != nil {
		return nil, nil, err
	}

	now := requestcontext.Now(ctx)
	vct.CreatedAt = now
	vct.UpdatedAt = now

	if err := s.store.Create(ctx, vct); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, nil, dErrors.New(dErrors.CodeConflict, "a vct with this URI already exists")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "create vct")
	}

	s.logger.InfoContext(ctx, "vct created",
		"vct", vct.VCT,
		"format", vct.Format,
		"warnings", len(warnings),
		"request_id", requestcontext.RequestID(ctx),
	)
	return vct, warnings, nil
}

// Update replaces the document identified by vctID. The body may omit the vct
// URI; when present it must match the URL.
func (s *Service) Update(ctx context.Context, vctID id.VCTID, vct *models.VCT) (*models.VCT, []string, error) {
	existing, err := s.Get(ctx, vctID)
	if err != nil {
		return nil, nil, err
	}
	if !vct.VCT.IsNil() && vct.VCT != vctID {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "vct in body does not match URL")
	}
	vct.VCT = vctID

	normalizeClaims(vct)
	if err := validateDocument(vct); err != nil {
		return nil, nil, err
	}
	warnings, err := s.checkMapping(ctx, vct)
	if err != nil {
		return nil, nil, err
	}

	vct.CreatedAt = existing.CreatedAt
	vct.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, vct); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "vct not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "update vct")
	}

	s.logger.InfoContext(ctx, "vct updated",
		"vct", vct.VCT,
		"format", vct.Format,
		"warnings", len(warnings),
		"request_id", requestcontext.RequestID(ctx),
	)
	return vct, warnings, nil
}

// Delete removes the document identified by vctID.
func (s *Service) Delete(ctx context.Context, vctID id.VCTID) error {
	if err := s.store.Delete(ctx, vctID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "vct not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete vct")
	}

	s.logger.InfoContext(ctx, "vct deleted",
		"vct", vctID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// checkMapping enforces the format's schema mapping when the referenced schema
// is registered locally. An unregistered schema is not an error: the document
// may reference a schema hosted elsewhere, so the check is skipped and the
// caller gets a warning to surface in the response.
func (s *Service) checkMapping(ctx context.Context, vct *models.VCT) ([]string, error) {
	if vct.SchemaURI == "" {
		return nil, nil
	}
	if s.registry == nil {
		return []string{schemaNotRegisteredWarning(vct.SchemaURI)}, nil
	}
	properties, err := s.registry.PropertyNames(ctx, vct.SchemaURI)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return []string{schemaNotRegisteredWarning(vct.SchemaURI)}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve schema")
	}
	if err := checkSchemaMapping(vct.Format, vct.Claims, properties); err != nil {
		return nil, err
	}
	return nil, nil
}

func schemaNotRegisteredWarning(uri string) string {
	return fmt.Sprintf("schema %s is not registered locally; claim mapping was not validated", uri)
}

// normalizeClaims applies the selective-disclosure default before validation.
func normalizeClaims(vct *models.VCT) {
	for i := range vct.Claims {
		if vct.Claims[i].SD == "" {
			vct.Claims[i].SD = models.DisclosureAllowed
		}
	}
}

func validateDocument(vct *models.VCT) error {
	if !vct.Format.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "format must be sd-jwt or json-ld")
	}
	if len(vct.Display) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one display entry is required")
	}
	locales := make(map[string]struct{}, len(vct.Display))
	for i, d := range vct.Display {
		if d.Locale == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("display[%d]: locale is required", i))
		}
		if _, dup := locales[d.Locale]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("display[%d]: duplicate locale %q", i, d.Locale))
		}
		locales[d.Locale] = struct{}{}
		if d.Name == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("display[%d]: name is required", i))
		}
	}

	paths := make(map[string]struct{}, len(vct.Claims))
	for i, c := range vct.Claims {
		if len(c.Path) == 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("claims[%d]: path is required", i))
		}
		for _, seg := range c.Path {
			if seg == "" {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("claims[%d]: path segments cannot be empty", i))
			}
		}
		key := c.PathString()
		if _, dup := paths[key]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("claims[%d]: duplicate path %q", i, key))
		}
		paths[key] = struct{}{}
		if !c.SD.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("claims[%d]: sd must be always, allowed or never", i))
		}
	}

	// Layout entries reference claims by their dotted path.
	for i, d := range vct.Display {
		for _, ref := range d.ClaimLayout {
			if _, ok := paths[ref]; !ok {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("display[%d]: claimLayout refers to unknown claim %q", i, ref))
			}
		}
	}
	return nil
}
