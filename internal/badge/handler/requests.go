package handler

import (
	"strings"

	"badgeforge/internal/badge/models"
	"badgeforge/pkg/platform/validation"
)

// SaveBadgeRequest is the create and update payload: the whole badge document.
// Server-owned fields (id on create, status, version, timestamps, author) are
// accepted here and overwritten by the service.
type SaveBadgeRequest struct {
	models.BadgeDefinition
}

func (r *SaveBadgeRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	for i := range r.EligibilityRules {
		r.EligibilityRules[i].Attribute = strings.TrimSpace(r.EligibilityRules[i].Attribute)
	}
}

func (r *SaveBadgeRequest) Validate() error {
	if err := validation.CheckRequired("name", r.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("description", r.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("templateUri", r.TemplateURI, validation.MaxURILength); err != nil {
		return err
	}
	return validation.CheckSliceCount("eligibilityRules", len(r.EligibilityRules), validation.MaxEligibilityRules)
}
