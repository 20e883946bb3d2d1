package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"badgeforge/internal/badge/metrics"
	"badgeforge/internal/badge/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/requestcontext"
)

// Store persists badge definitions.
type Store interface {
	List(ctx context.Context) ([]*models.BadgeDefinition, error)
	FindByID(ctx context.Context, badgeID id.BadgeID) (*models.BadgeDefinition, error)
	Create(ctx context.Context, badge *models.BadgeDefinition) error
	Update(ctx context.Context, badge *models.BadgeDefinition) error
	Delete(ctx context.Context, badgeID id.BadgeID) error
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// List returns badges, optionally filtered by lifecycle status.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.BadgeDefinition, error) {
	badges, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list badges")
	}
	if status == "" {
		return badges, nil
	}

	filtered := badges[:0]
	for _, b := range badges {
		if b.Status == status {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// Get loads a single badge.
func (s *Service) Get(ctx context.Context, badgeID id.BadgeID) (*models.BadgeDefinition, error) {
	badge, err := s.store.FindByID(ctx, badgeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "badge not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load badge")
	}
	return badge, nil
}

// Create stores a new badge. The server owns id (when absent), status,
// version, timestamps, and author; whatever the client sent for those is
// overwritten.
func (s *Service) Create(ctx context.Context, badge *models.BadgeDefinition) (*models.BadgeDefinition, error) {
	if badge.ID == "" {
		badge.ID = s.deriveID(badge.Name)
	} else if _, err := id.ParseBadgeID(badge.ID.String()); err != nil {
		return nil, err
	}

	if badge.RuleLogic == "" {
		badge.RuleLogic = models.LogicAll
	}
	if err := validateDefinition(badge); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	badge.Status = models.StatusDraft
	badge.Version = 1
	badge.CreatedAt = now
	badge.UpdatedAt = now
	badge.Author = requestcontext.Subject(ctx)

	if err := s.store.Create(ctx, badge); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "badge id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create badge")
	}

	if s.metrics != nil {
		s.metrics.IncrementWrites("create")
	}
	s.logger.InfoContext(ctx, "badge created",
		"badge_id", badge.ID,
		"author", badge.Author,
		"request_id", requestcontext.RequestID(ctx),
	)
	return badge, nil
}

// Update replaces the badge wholesale. Status cannot change here; version,
// updatedAt, createdAt, and author stay server-owned.
func (s *Service) Update(ctx context.Context, badgeID id.BadgeID, badge *models.BadgeDefinition) (*models.BadgeDefinition, error) {
	existing, err := s.Get(ctx, badgeID)
	if err != nil {
		return nil, err
	}

	if badge.ID != "" && badge.ID != badgeID {
		return nil, dErrors.New(dErrors.CodeValidation, "badge id in body does not match URL")
	}
	if badge.Status != "" && badge.Status != existing.Status {
		return nil, dErrors.New(dErrors.CodeConflict, "status changes only through publish")
	}

	badge.ID = badgeID
	if badge.RuleLogic == "" {
		badge.RuleLogic = existing.RuleLogic
	}
	if err := validateDefinition(badge); err != nil {
		return nil, err
	}

	badge.Status = existing.Status
	badge.Version = existing.Version + 1
	badge.CreatedAt = existing.CreatedAt
	badge.UpdatedAt = requestcontext.Now(ctx)
	badge.Author = existing.Author

	if err := s.store.Update(ctx, badge); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "badge not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update badge")
	}

	if s.metrics != nil {
		s.metrics.IncrementWrites("update")
	}
	return badge, nil
}

// Delete removes the badge.
func (s *Service) Delete(ctx context.Context, badgeID id.BadgeID) error {
	if err := s.store.Delete(ctx, badgeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "badge not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete badge")
	}
	if s.metrics != nil {
		s.metrics.IncrementWrites("delete")
	}
	return nil
}

// Publish moves a draft badge to published. Publishing is the only status
// transition; a published badge cannot be published again.
func (s *Service) Publish(ctx context.Context, badgeID id.BadgeID) (*models.BadgeDefinition, error) {
	badge, err := s.Get(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if badge.IsPublished() {
		return nil, dErrors.New(dErrors.CodeConflict, "badge is already published")
	}
	if len(badge.EligibilityRules) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "a published badge needs at least one eligibility rule")
	}

	badge.Status = models.StatusPublished
	badge.Version++
	badge.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, badge); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "badge not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "publish badge")
	}

	if s.metrics != nil {
		s.metrics.IncrementPublishes()
	}
	s.logger.InfoContext(ctx, "badge published",
		"badge_id", badge.ID,
		"version", badge.Version,
		"request_id", requestcontext.RequestID(ctx),
	)
	return badge, nil
}

// deriveID turns the badge name into a slug id, falling back to a random id
// when the name yields nothing usable.
func (s *Service) deriveID(name string) id.BadgeID {
	if slug := platformstrings.Slugify(name); slug != "" {
		return id.BadgeID(slug)
	}
	return id.BadgeID(uuid.NewString())
}

// validateDefinition checks the semantic rules a stored badge must satisfy.
// Shape-level checks (lengths, required name) happen in the request DTO.
func validateDefinition(badge *models.BadgeDefinition) error {
	if !badge.RuleLogic.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "ruleLogic must be all or any")
	}
	for i, rule := range badge.EligibilityRules {
		if rule.Attribute == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("eligibilityRules[%d]: attribute is required", i))
		}
		if !rule.Operator.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("eligibilityRules[%d]: unknown operator %q", i, rule.Operator))
		}
		if rule.Operator.RequiresValue() && rule.Value == nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("eligibilityRules[%d]: operator %s needs a value", i, rule.Operator))
		}
	}
	for i, ev := range badge.EvidenceConfig {
		if ev.Type == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("evidenceConfig[%d]: type is required", i))
		}
	}
	return nil
}
