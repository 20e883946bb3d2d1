// Package handler exposes the zone-template REST surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/layout/models"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// Service is the domain interface the handler depends on.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	List(ctx context.Context) ([]*models.ZoneTemplate, error)
	Get(ctx context.Context, templateID id.TemplateID) (*models.ZoneTemplate, error)
	Create(ctx context.Context, template *models.ZoneTemplate) (*models.ZoneTemplate, []models.OverlapWarning, error)
	Update(ctx context.Context, templateID id.TemplateID, template *models.ZoneTemplate) (*models.ZoneTemplate, []models.OverlapWarning, error)
	Delete(ctx context.Context, templateID id.TemplateID) error
	Check(ctx context.Context, template *models.ZoneTemplate) ([]models.OverlapWarning, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the zone-template routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/zone-templates", h.HandleListTemplates)
	r.Post("/zone-templates", h.HandleCreateTemplate)
	r.Post("/zone-templates/check", h.HandleCheckTemplate)
	r.Get("/zone-templates/{id}", h.HandleGetTemplate)
	r.Put("/zone-templates/{id}", h.HandleUpdateTemplate)
	r.Delete("/zone-templates/{id}", h.HandleDeleteTemplate)
}

func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	templates, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list zone templates failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(templates))
}

func (h *Handler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveZoneTemplateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	template, warnings, err := h.service.Create(ctx, &req.ZoneTemplate)
	if err != nil {
		h.logger.ErrorContext(ctx, "create zone template failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSaveResponse(template, warnings))
}

func (h *Handler) HandleCheckTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckZoneTemplateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	warnings, err := h.service.Check(ctx, &req.ZoneTemplate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCheckResponse(warnings))
}

func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	templateID, err := id.ParseTemplateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	template, err := h.service.Get(ctx, templateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get zone template failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	templateID, err := id.ParseTemplateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveZoneTemplateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	template, warnings, err := h.service.Update(ctx, templateID, &req.ZoneTemplate)
	if err != nil {
		h.logger.ErrorContext(ctx, "update zone template failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSaveResponse(template, warnings))
}

func (h *Handler) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	templateID, err := id.ParseTemplateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, templateID); err != nil {
		h.logger.ErrorContext(ctx, "delete zone template failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
