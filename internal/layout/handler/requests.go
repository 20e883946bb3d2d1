package handler

import (
	"strings"

	"badgeforge/internal/layout/models"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/platform/validation"
)

// SaveZoneTemplateRequest is the body for create and update. The document
// shape is the wire shape, so the model is embedded directly.
type SaveZoneTemplateRequest struct {
	models.ZoneTemplate
}

func (r *SaveZoneTemplateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	normalizeFace(&r.Front)
	normalizeFace(&r.Back)
}

// Validate covers size limits; zone semantics are the service's job.
func (r *SaveZoneTemplateRequest) Validate() error {
	if err := validation.CheckRequired("name", r.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("description", r.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	return checkZoneCounts(&r.ZoneTemplate)
}

// CheckZoneTemplateRequest is the body for the stateless layout check. Unlike
// a save, the template may still be unnamed while the user sketches zones.
type CheckZoneTemplateRequest struct {
	models.ZoneTemplate
}

func (r *CheckZoneTemplateRequest) Normalize() {
	normalizeFace(&r.Front)
	normalizeFace(&r.Back)
}

func (r *CheckZoneTemplateRequest) Validate() error {
	return checkZoneCounts(&r.ZoneTemplate)
}

func checkZoneCounts(t *models.ZoneTemplate) error {
	if err := validation.CheckSliceCount("front.zones", len(t.Front.Zones), validation.MaxZones); err != nil {
		return err
	}
	return validation.CheckSliceCount("back.zones", len(t.Back.Zones), validation.MaxZones)
}

func normalizeFace(f *models.ZoneFace) {
	for i := range f.Zones {
		f.Zones[i].ID = strings.TrimSpace(f.Zones[i].ID)
		f.Zones[i].Label = strings.TrimSpace(f.Zones[i].Label)
		if c := f.Zones[i].Binding.Criteria; c != nil {
			c.Role = strings.TrimSpace(c.Role)
			c.Tags = platformstrings.DedupeAndTrimLower(c.Tags)
		}
	}
}
