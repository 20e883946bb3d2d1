package handler

import (
	"badgeforge/internal/badge/models"
)

// Badge documents go over the wire exactly as stored, so single-badge
// responses reuse the model. Only the list gets an envelope.

type ListBadgesResponse struct {
	Badges []*models.BadgeDefinition `json:"badges"`
	Count  int                       `json:"count"`
}

func toListResponse(badges []*models.BadgeDefinition) *ListBadgesResponse {
	if badges == nil {
		badges = []*models.BadgeDefinition{}
	}
	return &ListBadgesResponse{Badges: badges, Count: len(badges)}
}
