package handler

import "badgeforge/internal/publish/models"

// ListPullsResponse wraps the governance pull request listing.
type ListPullsResponse struct {
	PullRequests []models.PullRequest `json:"pull_requests"`
	Count        int                  `json:"count"`
}

func toListPullsResponse(prs []models.PullRequest) ListPullsResponse {
	if prs == nil {
		prs = []models.PullRequest{}
	}
	return ListPullsResponse{PullRequests: prs, Count: len(prs)}
}
