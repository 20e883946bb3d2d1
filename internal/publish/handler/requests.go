package handler

import (
	"strings"

	"badgeforge/internal/publish/models"
	"badgeforge/pkg/platform/validation"
)

// PublishArtifactRequest is the body for POST /github/publish.
type PublishArtifactRequest struct {
	models.PublishRequest
}

func (r *PublishArtifactRequest) Normalize() {
	r.Kind = models.Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.ID = strings.TrimSpace(r.ID)
	r.Repo = strings.TrimSpace(r.Repo)
	r.BaseBranch = strings.TrimSpace(r.BaseBranch)
	// The contents API rejects leading slashes in paths.
	r.Path = strings.Trim(strings.TrimSpace(r.Path), "/")
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
}

func (r *PublishArtifactRequest) Validate() error {
	if err := validation.CheckRequired("kind", string(r.Kind)); err != nil {
		return err
	}
	if err := validation.CheckRequired("id", r.ID); err != nil {
		return err
	}
	if err := validation.CheckRequired("repo", r.Repo); err != nil {
		return err
	}
	if err := validation.CheckStringLength("path", r.Path, validation.MaxURILength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("title", r.Title, validation.MaxNameLength); err != nil {
		return err
	}
	return validation.CheckStringLength("body", r.Body, validation.MaxDescriptionLength)
}
