// Package service implements the zone-template domain logic: hard zone
// validation, advisory overlap detection, and translation of store sentinels
// into domain errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"badgeforge/internal/layout/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/requestcontext"
)

// Store is the persistence interface the service depends on.
type Store interface {
	List(ctx context.Context) ([]*models.ZoneTemplate, error)
	FindByID(ctx context.Context, templateID id.TemplateID) (*models.ZoneTemplate, error)
	Create(ctx context.Context, template *models.ZoneTemplate) error
	Update(ctx context.Context, template *models.ZoneTemplate) error
	Delete(ctx context.Context, templateID id.TemplateID) error
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns all zone templates.
func (s *Service) List(ctx context.Context) ([]*models.ZoneTemplate, error) {
	templates, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list zone templates")
	}
	return templates, nil
}

// Get returns a single template by id.
func (s *Service) Get(ctx context.Context, templateID id.TemplateID) (*models.ZoneTemplate, error) {
	template, err := s.store.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "zone template not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load zone template")
	}
	return template, nil
}

// Create validates and stores a new template. Overlapping zones do not fail
// the save; they come back as warnings for the editor to surface.
func (s *Service) Create(ctx context.Context, template *models.ZoneTemplate) (*models.ZoneTemplate, []models.OverlapWarning, error) {
	if template.ID.IsNil() {
		template.ID = deriveID(template.Name)
	} else if _, err := id.ParseTemplateID(template.ID.String()); err != nil {
		return nil, nil, err
	}

	if err := validateTemplate(template); err != nil {
		return nil, nil, err
	}
	warnings := detectOverlaps(template)

	now := requestcontext.Now(ctx)
	template.CreatedAt = now
	template.UpdatedAt = now

	if err := s.store.Create(ctx, template); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, nil, dErrors.New(dErrors.CodeConflict, "zone template id already exists")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "create zone template")
	}

	s.logger.InfoContext(ctx, "zone template created",
		"template_id", template.ID,
		"zones", len(template.Front.Zones)+len(template.Back.Zones),
		"overlaps", len(warnings),
		"request_id", requestcontext.RequestID(ctx),
	)
	return template, warnings, nil
}

// Update replaces the template identified by templateID. The body may omit
// the id; when present it must match the URL.
func (s *Service) Update(ctx context.Context, templateID id.TemplateID, template *models.ZoneTemplate) (*models.ZoneTemplate, []models.OverlapWarning, error) {
	existing, err := s.Get(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	if !template.ID.IsNil() && template.ID != templateID {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "template id in body does not match URL")
	}
	template.ID = templateID

	if err := validateTemplate(template); err != nil {
		return nil, nil, err
	}
	warnings := detectOverlaps(template)

	template.CreatedAt = existing.CreatedAt
	template.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, template); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "zone template not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "update zone template")
	}

	s.logger.InfoContext(ctx, "zone template updated",
		"template_id", template.ID,
		"overlaps", len(warnings),
		"request_id", requestcontext.RequestID(ctx),
	)
	return template, warnings, nil
}

// Delete removes the template identified by templateID.
func (s *Service) Delete(ctx context.Context, templateID id.TemplateID) error {
	if err := s.store.Delete(ctx, templateID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "zone template not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete zone template")
	}

	s.logger.InfoContext(ctx, "zone template deleted",
		"template_id", templateID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Check validates a template and reports its overlaps without persisting
// anything. Backs the editor's live layout feedback.
func (s *Service) Check(_ context.Context, template *models.ZoneTemplate) ([]models.OverlapWarning, error) {
	if err := validateTemplate(template); err != nil {
		return nil, err
	}
	return detectOverlaps(template), nil
}

func deriveID(name string) id.TemplateID {
	if slug := platformstrings.Slugify(name); slug != "" {
		return id.TemplateID(slug)
	}
	return id.TemplateID(uuid.NewString())
}
