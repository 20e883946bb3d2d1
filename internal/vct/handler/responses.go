package handler

import "badgeforge/internal/vct/models"

// ListVCTsResponse wraps the collection the editor's type picker consumes.
type ListVCTsResponse struct {
	VCTs  []*models.VCT `json:"vcts"`
	Count int           `json:"count"`
}

func toListResponse(vcts []*models.VCT) ListVCTsResponse {
	if vcts == nil {
		vcts = []*models.VCT{}
	}
	return ListVCTsResponse{VCTs: vcts, Count: len(vcts)}
}

// SaveVCTResponse is returned by create and update. Warnings carry non-fatal
// findings, currently only a skipped mapping check for unregistered schemas.
type SaveVCTResponse struct {
	Document *models.VCT `json:"document"`
	Warnings []string    `json:"warnings"`
}

func toSaveResponse(vct *models.VCT, warnings []string) SaveVCTResponse {
	if warnings == nil {
		warnings = []string{}
	}
	return SaveVCTResponse{Document: vct, Warnings: warnings}
}
