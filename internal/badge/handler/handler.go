package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/badge/models"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// Service defines the interface for badge operations.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	List(ctx context.Context, status models.Status) ([]*models.BadgeDefinition, error)
	Get(ctx context.Context, badgeID id.BadgeID) (*models.BadgeDefinition, error)
	Create(ctx context.Context, badge *models.BadgeDefinition) (*models.BadgeDefinition, error)
	Update(ctx context.Context, badgeID id.BadgeID, badge *models.BadgeDefinition) (*models.BadgeDefinition, error)
	Delete(ctx context.Context, badgeID id.BadgeID) error
	Publish(ctx context.Context, badgeID id.BadgeID) (*models.BadgeDefinition, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/badges", h.HandleListBadges)
	r.Post("/badges", h.HandleCreateBadge)
	r.Get("/badges/{id}", h.HandleGetBadge)
	r.Put("/badges/{id}", h.HandleUpdateBadge)
	r.Delete("/badges/{id}", h.HandleDeleteBadge)
	r.Post("/badges/{id}/publish", h.HandlePublishBadge)
}

// HandleListBadges lists badges, optionally filtered by ?status=.
func (h *Handler) HandleListBadges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	status := models.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be draft or published"))
		return
	}

	badges, err := h.service.List(ctx, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "list badges failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListResponse(badges))
}

// HandleCreateBadge stores a new badge definition.
func (h *Handler) HandleCreateBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveBadgeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	badge, err := h.service.Create(ctx, &req.BadgeDefinition)
	if err != nil {
		h.logger.ErrorContext(ctx, "create badge failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, badge)
}

// HandleGetBadge returns one badge document.
func (h *Handler) HandleGetBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	badgeID, err := id.ParseBadgeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid badge id"))
		return
	}

	badge, err := h.service.Get(ctx, badgeID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get badge failed", "error", err, "request_id", requestID, "badge_id", badgeID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, badge)
}

// HandleUpdateBadge replaces a badge document wholesale.
func (h *Handler) HandleUpdateBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	badgeID, err := id.ParseBadgeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid badge id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveBadgeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	badge, err := h.service.Update(ctx, badgeID, &req.BadgeDefinition)
	if err != nil {
		h.logger.ErrorContext(ctx, "update badge failed", "error", err, "request_id", requestID, "badge_id", badgeID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, badge)
}

// HandleDeleteBadge removes a badge.
func (h *Handler) HandleDeleteBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	badgeID, err := id.ParseBadgeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid badge id"))
		return
	}

	if err := h.service.Delete(ctx, badgeID); err != nil {
		h.logger.ErrorContext(ctx, "delete badge failed", "error", err, "request_id", requestID, "badge_id", badgeID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePublishBadge moves a draft badge to published.
func (h *Handler) HandlePublishBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	badgeID, err := id.ParseBadgeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid badge id"))
		return
	}

	badge, err := h.service.Publish(ctx, badgeID)
	if err != nil {
		h.logger.ErrorContext(ctx, "publish badge failed", "error", err, "request_id", requestID, "badge_id", badgeID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, badge)
}
