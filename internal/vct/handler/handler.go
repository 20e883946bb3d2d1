// Package handler exposes the VCT REST surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/vct/models"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// Service is the domain interface the handler depends on.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	List(ctx context.Context) ([]*models.VCT, error)
	Get(ctx context.Context, vctID id.VCTID) (*models.VCT, error)
	Create(ctx context.Context, vct *models.VCT) (*models.VCT, []string, error)
	Update(ctx context.Context, vctID id.VCTID, vct *models.VCT) (*models.VCT, []string, error)
	Delete(ctx context.Context, vctID id.VCTID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the VCT routes. The {id} segment is the URL-escaped vct URI.
func (h *Handler) Register(r chi.Router) {
	r.Get("/vcts", h.HandleListVCTs)
	r.Post("/vcts", h.HandleCreateVCT)
	r.Get("/vcts/{id}", h.HandleGetVCT)
	r.Put("/vcts/{id}", h.HandleUpdateVCT)
	r.Delete("/vcts/{id}", h.HandleDeleteVCT)
}

func (h *Handler) HandleListVCTs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	vcts, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list vcts failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(vcts))
}

func (h *Handler) HandleCreateVCT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveVCTRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vct, warnings, err := h.service.Create(ctx, &req.VCT)
	if err != nil {
		h.logger.ErrorContext(ctx, "create vct failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSaveResponse(vct, warnings))
}

func (h *Handler) HandleGetVCT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	vctID, err := vctIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vct, err := h.service.Get(ctx, vctID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get vct failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vct)
}

func (h *Handler) HandleUpdateVCT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	vctID, err := vctIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveVCTRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vct, warnings, err := h.service.Update(ctx, vctID, &req.VCT)
	if err != nil {
		h.logger.ErrorContext(ctx, "update vct failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSaveResponse(vct, warnings))
}

func (h *Handler) HandleDeleteVCT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	vctID, err := vctIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, vctID); err != nil {
		h.logger.ErrorContext(ctx, "delete vct failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// vctIDFromRequest decodes the {id} path segment. The vct URI arrives
// URL-escaped so its slashes survive routing, and chi hands the segment back
// still escaped.
func vctIDFromRequest(r *http.Request) (id.VCTID, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid vct id encoding")
	}
	return id.ParseVCTID(decoded)
}
