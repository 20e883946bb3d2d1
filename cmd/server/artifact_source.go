package main

import (
	"context"

	badgeservice "badgeforge/internal/badge/service"
	layoutservice "badgeforge/internal/layout/service"
	publishmodels "badgeforge/internal/publish/models"
	vctservice "badgeforge/internal/vct/service"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
)

// artifactSource adapts the artifact services to the publish flow's read-only
// lookup. The committed document comes from the same services the editor
// reads, so what lands in the pull request is exactly what GET returns.
type artifactSource struct {
	badges  *badgeservice.Service
	vcts    *vctservice.Service
	layouts *layoutservice.Service
}

func newArtifactSource(badges *badgeservice.Service, vcts *vctservice.Service, layouts *layoutservice.Service) *artifactSource {
	return &artifactSource{badges: badges, vcts: vcts, layouts: layouts}
}

func (a *artifactSource) Artifact(ctx context.Context, kind publishmodels.Kind, artifactID string) (*publishmodels.Artifact, error) {
	switch kind {
	case publishmodels.KindBadge:
		badgeID, err := id.ParseBadgeID(artifactID)
		if err != nil {
			return nil, err
		}
		badge, err := a.badges.Get(ctx, badgeID)
		if err != nil {
			return nil, err
		}
		return &publishmodels.Artifact{Kind: kind, ID: artifactID, Document: badge}, nil

	case publishmodels.KindVCT:
		vctID, err := id.ParseVCTID(artifactID)
		if err != nil {
			return nil, err
		}
		vct, err := a.vcts.Get(ctx, vctID)
		if err != nil {
			return nil, err
		}
		return &publishmodels.Artifact{Kind: kind, ID: artifactID, Document: vct}, nil

	case publishmodels.KindZoneTemplate:
		templateID, err := id.ParseTemplateID(artifactID)
		if err != nil {
			return nil, err
		}
		template, err := a.layouts.Get(ctx, templateID)
		if err != nil {
			return nil, err
		}
		return &publishmodels.Artifact{Kind: kind, ID: artifactID, Document: template}, nil
	}
	return nil, dErrors.New(dErrors.CodeValidation, "unknown artifact kind")
}
