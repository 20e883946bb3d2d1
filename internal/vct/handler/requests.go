package handler

import (
	"strings"

	"badgeforge/internal/vct/models"
	"badgeforge/pkg/platform/validation"
)

// SaveVCTRequest is the body for create and update. The document shape is the
// wire shape, so the model is embedded directly.
type SaveVCTRequest struct {
	models.VCT
}

func (r *SaveVCTRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.SchemaURI = strings.TrimSpace(r.SchemaURI)
	r.Issuer = strings.TrimSpace(r.Issuer)
	for i := range r.Display {
		r.Display[i].Locale = strings.TrimSpace(r.Display[i].Locale)
		r.Display[i].Name = strings.TrimSpace(r.Display[i].Name)
	}
	for i := range r.Claims {
		for j := range r.Claims[i].Path {
			r.Claims[i].Path[j] = strings.TrimSpace(r.Claims[i].Path[j])
		}
	}
}

// Validate covers size limits; document semantics are the service's job.
func (r *SaveVCTRequest) Validate() error {
	if err := validation.CheckRequired("name", r.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("description", r.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("schemaUri", r.SchemaURI, validation.MaxURILength); err != nil {
		return err
	}
	if err := validation.CheckSliceCount("claims", len(r.Claims), validation.MaxClaims); err != nil {
		return err
	}
	return validation.CheckSliceCount("display", len(r.Display), validation.MaxLocales)
}
