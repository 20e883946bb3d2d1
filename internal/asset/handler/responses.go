package handler

import "badgeforge/internal/asset/models"

// ListAssetsResponse wraps the registry collection.
type ListAssetsResponse struct {
	Assets []*models.Asset `json:"assets"`
	Count  int             `json:"count"`
}

func toListResponse(assets []*models.Asset) ListAssetsResponse {
	if assets == nil {
		assets = []*models.Asset{}
	}
	return ListAssetsResponse{Assets: assets, Count: len(assets)}
}

// ResolveAssetResponse carries the resolved pick. Preview is always true: the
// choice is pseudo-random and stands in for issuance-time resolution.
type ResolveAssetResponse struct {
	Asset   *models.Asset `json:"asset"`
	Preview bool          `json:"preview"`
}

func toResolveResponse(asset *models.Asset) ResolveAssetResponse {
	return ResolveAssetResponse{Asset: asset, Preview: true}
}
