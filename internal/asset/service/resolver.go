package service

import (
	"context"
	"math/rand"
	"time"

	"badgeforge/internal/asset/models"
	dErrors "badgeforge/pkg/domain-errors"
)

// resolveCacheTTL bounds how stale a preview's matching set can get when the
// registry changes underneath it through an external file edit.
const resolveCacheTTL = 5 * time.Minute

// Resolve picks one asset matching the criteria, pseudo-randomly so repeated
// previews rotate through the matching set. This is preview behavior only;
// issuance-time resolution happens elsewhere and is deterministic.
func (s *Service) Resolve(ctx context.Context, criteria models.Criteria) (*models.Asset, error) {
	if criteria.Role == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "criteria role is required")
	}

	matches, err := s.matchingSet(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no asset matches the criteria")
	}

	pick := matches[rand.Intn(len(matches))]
	s.logger.DebugContext(ctx, "asset resolved",
		"criteria", criteria.CacheKey(),
		"asset_id", pick.ID,
		"matches", len(matches),
	)
	return pick.Clone(), nil
}

// matchingSet returns the assets satisfying the criteria, from cache when
// fresh. Concurrent fills for the same criteria collapse into one store scan.
func (s *Service) matchingSet(ctx context.Context, criteria models.Criteria) ([]*models.Asset, error) {
	key := criteria.CacheKey()
	if matches, ok := s.cache.Get(key); ok {
		s.countResolution("hit")
		return matches, nil
	}
	s.countResolution("miss")

	v, err, _ := s.group.Do(key, func() (any, error) {
		if matches, ok := s.cache.Get(key); ok {
			return matches, nil
		}
		assets, err := s.store.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan assets")
		}
		matches := make([]*models.Asset, 0, len(assets))
		for _, a := range assets {
			if criteria.Matches(a) {
				matches = append(matches, a)
			}
		}
		s.cache.Set(key, matches, resolveCacheTTL)
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Asset), nil
}

func (s *Service) countResolution(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementResolutions(outcome)
	}
}
