package handler

import "badgeforge/internal/layout/models"

// ListZoneTemplatesResponse wraps the collection the editor's template picker
// consumes.
type ListZoneTemplatesResponse struct {
	Templates []*models.ZoneTemplate `json:"templates"`
	Count     int                    `json:"count"`
}

func toListResponse(templates []*models.ZoneTemplate) ListZoneTemplatesResponse {
	if templates == nil {
		templates = []*models.ZoneTemplate{}
	}
	return ListZoneTemplatesResponse{Templates: templates, Count: len(templates)}
}

// SaveZoneTemplateResponse is returned by create and update. Warnings carry
// the overlap findings; the save succeeded regardless.
type SaveZoneTemplateResponse struct {
	Template *models.ZoneTemplate    `json:"template"`
	Warnings []models.OverlapWarning `json:"warnings"`
}

func toSaveResponse(template *models.ZoneTemplate, warnings []models.OverlapWarning) SaveZoneTemplateResponse {
	if warnings == nil {
		warnings = []models.OverlapWarning{}
	}
	return SaveZoneTemplateResponse{Template: template, Warnings: warnings}
}

// CheckZoneTemplateResponse is the stateless check result.
type CheckZoneTemplateResponse struct {
	Warnings []models.OverlapWarning `json:"warnings"`
}

func toCheckResponse(warnings []models.OverlapWarning) CheckZoneTemplateResponse {
	if warnings == nil {
		warnings = []models.OverlapWarning{}
	}
	return CheckZoneTemplateResponse{Warnings: warnings}
}
