package service

import (
	"fmt"

	"badgeforge/internal/layout/models"
	dErrors "badgeforge/pkg/domain-errors"
)

// validateTemplate applies the hard zone rules: rects inside the face,
// positive size, unique zone ids per face, binding payload matching its kind.
// Overlap is not checked here; overlapping zones are legal and only warned
// about.
func validateTemplate(t *models.ZoneTemplate) error {
	if err := validateFace(models.FaceFront, t.Front); err != nil {
		return err
	}
	return validateFace(models.FaceBack, t.Back)
}

func validateFace(face string, f models.ZoneFace) error {
	seen := make(map[string]struct{}, len(f.Zones))
	for i, z := range f.Zones {
		where := fmt.Sprintf("%s.zones[%d]", face, i)
		if z.ID == "" {
			return dErrors.New(dErrors.CodeValidation, where+": id is required")
		}
		if _, dup := seen[z.ID]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s: duplicate zone id %q", where, z.ID))
		}
		seen[z.ID] = struct{}{}

		if err := validateRect(where, z.Rect); err != nil {
			return err
		}
		if err := validateBinding(where, z.Binding); err != nil {
			return err
		}
	}
	return nil
}

func validateRect(where string, r models.Rect) error {
	if r.W <= 0 || r.H <= 0 {
		return dErrors.New(dErrors.CodeValidation, where+": zone width and height must be positive")
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > 100 || r.Y+r.H > 100 {
		return dErrors.New(dErrors.CodeValidation, where+": zone must fit inside the 0-100 face bounds")
	}
	return nil
}

func validateBinding(where string, b models.Binding) error {
	if !b.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, where+": binding kind must be static, claim or asset")
	}
	switch b.Kind {
	case models.BindingStatic:
		if b.Value == "" {
			return dErrors.New(dErrors.CodeValidation, where+": static binding needs a value")
		}
		if b.ClaimPath != "" || b.Criteria != nil {
			return dErrors.New(dErrors.CodeValidation, where+": static binding cannot carry claimPath or criteria")
		}
	case models.BindingClaim:
		if b.ClaimPath == "" {
			return dErrors.New(dErrors.CodeValidation, where+": claim binding needs a claimPath")
		}
		if b.Value != "" || b.Criteria != nil {
			return dErrors.New(dErrors.CodeValidation, where+": claim binding cannot carry value or criteria")
		}
	case models.BindingAsset:
		if b.Criteria == nil || b.Criteria.Role == "" {
			return dErrors.New(dErrors.CodeValidation, where+": asset binding needs criteria with a role")
		}
		if b.Value != "" || b.ClaimPath != "" {
			return dErrors.New(dErrors.CodeValidation, where+": asset binding cannot carry value or claimPath")
		}
	}
	return nil
}

// detectOverlaps runs the pairwise intersection check per face. Quadratic in
// zones per face, which is fine for the zone counts a card can physically
// hold. Faces are independent: a front zone never overlaps a back zone.
func detectOverlaps(t *models.ZoneTemplate) []models.OverlapWarning {
	var warnings []models.OverlapWarning
	warnings = appendFaceOverlaps(warnings, models.FaceFront, t.Front)
	warnings = appendFaceOverlaps(warnings, models.FaceBack, t.Back)
	return warnings
}

func appendFaceOverlaps(warnings []models.OverlapWarning, face string, f models.ZoneFace) []models.OverlapWarning {
	for i := 0; i < len(f.Zones); i++ {
		for j := i + 1; j < len(f.Zones); j++ {
			area := f.Zones[i].Rect.Intersection(f.Zones[j].Rect)
			if area <= 0 {
				continue
			}
			warnings = append(warnings, models.OverlapWarning{
				Face:  face,
				ZoneA: f.Zones[i].ID,
				ZoneB: f.Zones[j].ID,
				Area:  area,
			})
		}
	}
	return warnings
}
