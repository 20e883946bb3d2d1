// Package handler exposes the GitHub publish flow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/publish/models"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// Service is the domain interface the handler depends on.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Publish(ctx context.Context, req models.PublishRequest) (*models.PublishResult, error)
	Pulls(ctx context.Context, repo, state string) ([]models.PullRequest, error)
	Status(ctx context.Context, repo string) (*models.RepoStatus, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the GitHub publish routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/github/publish", h.HandlePublish)
	r.Get("/github/pulls", h.HandleListPulls)
	r.Get("/github/status", h.HandleGitHubStatus)
}

// HandlePublish proposes an artifact on GitHub: branch, commit, pull request.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PublishArtifactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Publish(ctx, req.PublishRequest)
	if err != nil {
		h.logger.ErrorContext(ctx, "publish failed",
			"error", err,
			"kind", req.Kind,
			"artifact_id", req.ID,
			"repo", req.Repo,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleListPulls lists the open governance proposals for a repository.
func (h *Handler) HandleListPulls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	repo := strings.TrimSpace(r.URL.Query().Get("repo"))
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if repo == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "repo query parameter is required"))
		return
	}

	prs, err := h.service.Pulls(ctx, repo, state)
	if err != nil {
		h.logger.ErrorContext(ctx, "list pull requests failed",
			"error", err,
			"repo", repo,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListPullsResponse(prs))
}

// HandleGitHubStatus reports token configuration and, when a repo is given,
// whether it is reachable.
func (h *Handler) HandleGitHubStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	repo := strings.TrimSpace(r.URL.Query().Get("repo"))

	status, err := h.service.Status(ctx, repo)
	if err != nil {
		h.logger.ErrorContext(ctx, "github status failed",
			"error", err,
			"repo", repo,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
