// Package service implements the asset registry and the criteria resolver
// that backs zone previews.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"badgeforge/internal/asset/metrics"
	"badgeforge/internal/asset/models"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/cache"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/requestcontext"
)

// Store is the persistence interface the service depends on.
type Store interface {
	List(ctx context.Context) ([]*models.Asset, error)
	FindByID(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, assetID id.AssetID) error
}

type Service struct {
	store   Store
	cache   *cache.Cache[[]*models.Asset]
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{
		store:  store,
		cache:  cache.New[[]*models.Asset](time.Minute),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close stops the criteria cache's janitor.
func (s *Service) Close() {
	s.cache.Stop()
}

// List returns all registry assets.
func (s *Service) List(ctx context.Context) ([]*models.Asset, error) {
	assets, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list assets")
	}
	return assets, nil
}

// Get returns a single asset by id.
func (s *Service) Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	asset, err := s.store.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load asset")
	}
	return asset, nil
}

// Create registers a new asset. Owner and createdAt are server-owned.
func (s *Service) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset.ID.IsNil() {
		asset.ID = deriveID(asset.Name)
	} else if _, err := id.ParseAssetID(asset.ID.String()); err != nil {
		return nil, err
	}

	asset.Owner = requestcontext.Subject(ctx)
	asset.CreatedAt = requestcontext.Now(ctx)

	if err := s.store.Create(ctx, asset); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "asset id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create asset")
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "asset created",
		"asset_id", asset.ID,
		"role", asset.Role,
		"request_id", requestcontext.RequestID(ctx),
	)
	return asset, nil
}

// Update replaces the asset identified by assetID, keeping its provenance.
func (s *Service) Update(ctx context.Context, assetID id.AssetID, asset *models.Asset) (*models.Asset, error) {
	existing, err := s.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.ID.IsNil() && asset.ID != assetID {
		return nil, dErrors.New(dErrors.CodeValidation, "asset id in body does not match URL")
	}
	asset.ID = assetID
	asset.Owner = existing.Owner
	asset.CreatedAt = existing.CreatedAt

	if err := s.store.Update(ctx, asset); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update asset")
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "asset updated",
		"asset_id", asset.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return asset, nil
}

// Delete removes the asset identified by assetID.
func (s *Service) Delete(ctx context.Context, assetID id.AssetID) error {
	if err := s.store.Delete(ctx, assetID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete asset")
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "asset deleted",
		"asset_id", assetID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// invalidate flushes the criteria cache. Any registry write may change any
// matching set, so the whole cache goes.
func (s *Service) invalidate() {
	s.cache.Clear()
	if s.metrics != nil {
		s.metrics.IncrementCacheInvalidations()
	}
}

func deriveID(name string) id.AssetID {
	if slug := platformstrings.Slugify(name); slug != "" {
		return id.AssetID(slug)
	}
	return id.AssetID(uuid.NewString())
}
