package handler

import (
	"strings"

	"badgeforge/internal/asset/models"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/platform/validation"
)

// SaveAssetRequest is the body for create and update. Roles, media types and
// tags are matched case-insensitively, so they are lowered on the way in.
type SaveAssetRequest struct {
	models.Asset
}

func (r *SaveAssetRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.MediaType = strings.ToLower(strings.TrimSpace(r.MediaType))
	r.URI = strings.TrimSpace(r.URI)
	r.Tags = platformstrings.DedupeAndTrimLower(r.Tags)
}

func (r *SaveAssetRequest) Validate() error {
	if err := validation.CheckRequired("name", r.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxNameLength); err != nil {
		return err
	}
	if err := validation.CheckRequired("role", r.Role); err != nil {
		return err
	}
	if err := validation.CheckRequired("uri", r.URI); err != nil {
		return err
	}
	if err := validation.CheckStringLength("uri", r.URI, validation.MaxURILength); err != nil {
		return err
	}
	if err := validation.CheckSliceCount("tags", len(r.Tags), validation.MaxTags); err != nil {
		return err
	}
	return validation.CheckEachStringLength("tags", r.Tags, validation.MaxNameLength)
}

// ResolveAssetRequest carries the criteria a zone binding resolves with.
type ResolveAssetRequest struct {
	Criteria models.Criteria `json:"criteria"`
}

func (r *ResolveAssetRequest) Normalize() {
	r.Criteria.Role = strings.ToLower(strings.TrimSpace(r.Criteria.Role))
	r.Criteria.MediaType = strings.ToLower(strings.TrimSpace(r.Criteria.MediaType))
	r.Criteria.Tags = platformstrings.DedupeAndTrimLower(r.Criteria.Tags)
}

func (r *ResolveAssetRequest) Validate() error {
	return validation.CheckRequired("criteria.role", r.Criteria.Role)
}
