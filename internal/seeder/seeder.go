// Package seeder populates empty artifact stores with starter content so a
// fresh checkout shows something in the editor. Deployments that point the
// assets directory at a real governance working tree never hit the empty-store
// path, so seeding is safe to run unconditionally at boot.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	assetmodels "badgeforge/internal/asset/models"
	badgemodels "badgeforge/internal/badge/models"
	layoutmodels "badgeforge/internal/layout/models"
	"badgeforge/internal/schema"
	vctmodels "badgeforge/internal/vct/models"
)

// BadgeStore is the subset of the badge file store the seeder needs.
type BadgeStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, badge *badgemodels.BadgeDefinition) error
}

// VCTStore is the subset of the VCT file store the seeder needs.
type VCTStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, vct *vctmodels.VCT) error
}

// LayoutStore is the subset of the zone template file store the seeder needs.
type LayoutStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, template *layoutmodels.ZoneTemplate) error
}

// SchemaStore is the subset of the schema registry the seeder needs.
type SchemaStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, schema *schema.CredentialSchema) error
}

// AssetStore is the subset of the asset registry the seeder needs.
type AssetStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, asset *assetmodels.Asset) error
}

// Seeder writes starter artifacts into stores that are still empty.
type Seeder struct {
	badges  BadgeStore
	vcts    VCTStore
	layouts LayoutStore
	schemas SchemaStore
	assets  AssetStore
	logger  *slog.Logger
}

// New creates a seeder over the given stores.
func New(badges BadgeStore, vcts VCTStore, layouts LayoutStore, schemas SchemaStore, assets AssetStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		badges:  badges,
		vcts:    vcts,
		layouts: layouts,
		schemas: schemas,
		assets:  assets,
		logger:  logger,
	}
}

// SeedAll seeds every store that is empty. Schemas go first because the badge
// and VCT fixtures reference them.
func (s *Seeder) SeedAll(ctx context.Context) error {
	now := time.Now().UTC()

	if err := s.seedSchemas(ctx, now); err != nil {
		return fmt.Errorf("seed schemas: %w", err)
	}
	if err := s.seedBadges(ctx, now); err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	if err := s.seedVCTs(ctx, now); err != nil {
		return fmt.Errorf("seed vcts: %w", err)
	}
	if err := s.seedAssets(ctx, now); err != nil {
		return fmt.Errorf("seed assets: %w", err)
	}
	if err := s.seedLayouts(ctx, now); err != nil {
		return fmt.Errorf("seed zone templates: %w", err)
	}
	return nil
}

func (s *Seeder) seedSchemas(ctx context.Context, now time.Time) error {
	count, err := s.schemas.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doc := &schema.CredentialSchema{
		ID:      "employee-credential",
		URI:     "https://schemas.example.com/employee-credential",
		Name:    "Employee Credential",
		Version: "1.0",
		Properties: []schema.Property{
			{Name: "employeeId", Type: "string", Description: "Internal employee number", Required: true},
			{Name: "name", Type: "string", Description: "Full display name", Required: true},
			{Name: "department", Type: "string"},
			{Name: "photo", Type: "string", Description: "Portrait URI"},
		},
		CreatedAt: now,
	}
	if err := s.schemas.Create(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("seeded starter schema", "id", doc.ID)
	return nil
}

func (s *Seeder) seedBadges(ctx context.Context, now time.Time) error {
	count, err := s.badges.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doc := &badgemodels.BadgeDefinition{
		ID:          "employee-of-the-month",
		SchemaID:    "employee-credential",
		Name:        "Employee of the Month",
		Description: "Awarded monthly for outstanding contributions.",
		CategoryID:  "recognition",
		EligibilityRules: []badgemodels.EligibilityRule{
			{Attribute: "tenure_months", Operator: badgemodels.OperatorGreaterThan, Value: 3},
			{Attribute: "nomination", Operator: badgemodels.OperatorExists},
		},
		RuleLogic: badgemodels.LogicAll,
		EvidenceConfig: []badgemodels.EvidenceRequirement{
			{Type: "nomination", Description: "Manager nomination letter", Required: true},
		},
		ProofMethod: "manual-review",
		Status:      badgemodels.StatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		Author:      "seed",
	}
	if err := s.badges.Create(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("seeded starter badge", "id", doc.ID)
	return nil
}

func (s *Seeder) seedVCTs(ctx context.Context, now time.Time) error {
	count, err := s.vcts.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doc := &vctmodels.VCT{
		VCT:         "https://credentials.example.com/employee-badge",
		Format:      vctmodels.FormatSDJWT,
		Name:        "Employee Badge",
		Description: "Workplace identity credential rendered as a virtual badge.",
		SchemaURI:   "https://schemas.example.com/employee-credential",
		Issuer:      "https://issuer.example.com",
		Display: []vctmodels.DisplayEntry{
			{
				Locale: "en-US",
				Name:   "Employee Badge",
				Rendering: &vctmodels.Rendering{
					LogoURI:         "https://assets.example.com/logo.svg",
					LogoAltText:     "Company logo",
					BackgroundColor: "#1a2b4c",
					TextColor:       "#ffffff",
				},
				ClaimLayout: []string{"name", "department"},
			},
		},
		Claims: []vctmodels.Claim{
			{
				Path:    []string{"name"},
				Display: []vctmodels.ClaimDisplay{{Locale: "en-US", Label: "Name"}},
				SD:      vctmodels.DisclosureNever,
			},
			{
				Path:    []string{"department"},
				Display: []vctmodels.ClaimDisplay{{Locale: "en-US", Label: "Department"}},
				SD:      vctmodels.DisclosureAllowed,
			},
			{
				Path: []string{"employeeId"},
				SD:   vctmodels.DisclosureAlways,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.vcts.Create(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("seeded starter credential type", "vct", doc.VCT)
	return nil
}

func (s *Seeder) seedAssets(ctx context.Context, now time.Time) error {
	count, err := s.assets.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doc := &assetmodels.Asset{
		ID:        "company-logo",
		Name:      "Company Logo",
		Role:      "logo",
		MediaType: "image/svg+xml",
		URI:       "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciLz4=",
		Tags:      []string{"brand"},
		Owner:     "seed",
		CreatedAt: now,
	}
	if err := s.assets.Create(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("seeded starter asset", "id", doc.ID)
	return nil
}

func (s *Seeder) seedLayouts(ctx context.Context, now time.Time) error {
	count, err := s.layouts.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doc := &layoutmodels.ZoneTemplate{
		ID:          "standard-badge-card",
		Name:        "Standard Badge Card",
		Description: "Two-sided layout with portrait, name, and logo on the front.",
		Front: layoutmodels.ZoneFace{
			Zones: []layoutmodels.Zone{
				{
					ID:    "photo",
					Label: "Portrait",
					Rect:  layoutmodels.Rect{X: 5, Y: 10, W: 30, H: 45},
					Binding: layoutmodels.Binding{
						Kind:     layoutmodels.BindingAsset,
						Criteria: &layoutmodels.AssetCriteria{Role: "photo"},
					},
				},
				{
					ID:      "name",
					Label:   "Holder name",
					Rect:    layoutmodels.Rect{X: 40, Y: 10, W: 55, H: 15},
					Binding: layoutmodels.Binding{Kind: layoutmodels.BindingClaim, ClaimPath: "name"},
				},
				{
					ID:   "logo",
					Rect: layoutmodels.Rect{X: 40, Y: 70, W: 25, H: 20},
					Binding: layoutmodels.Binding{
						Kind:     layoutmodels.BindingAsset,
						Criteria: &layoutmodels.AssetCriteria{Role: "logo", Tags: []string{"brand"}},
					},
				},
			},
		},
		Back: layoutmodels.ZoneFace{
			Zones: []layoutmodels.Zone{
				{
					ID:      "issuer",
					Label:   "Issuer notice",
					Rect:    layoutmodels.Rect{X: 10, Y: 75, W: 80, H: 15},
					Binding: layoutmodels.Binding{Kind: layoutmodels.BindingStatic, Value: "Issued by Example Corp"},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.layouts.Create(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("seeded starter zone template", "id", doc.ID)
	return nil
}
