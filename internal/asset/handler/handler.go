// Package handler exposes the asset registry and resolver REST surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/asset/models"
	id "badgeforge/pkg/domain"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// Service is the domain interface the handler depends on.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	List(ctx context.Context) ([]*models.Asset, error)
	Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	Update(ctx context.Context, assetID id.AssetID, asset *models.Asset) (*models.Asset, error)
	Delete(ctx context.Context, assetID id.AssetID) error
	Resolve(ctx context.Context, criteria models.Criteria) (*models.Asset, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the asset routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/assets", h.HandleListAssets)
	r.Post("/assets", h.HandleCreateAsset)
	r.Post("/assets/resolve", h.HandleResolveAsset)
	r.Get("/assets/{id}", h.HandleGetAsset)
	r.Put("/assets/{id}", h.HandleUpdateAsset)
	r.Delete("/assets/{id}", h.HandleDeleteAsset)
}

func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	assets, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list assets failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(assets))
}

func (h *Handler) HandleCreateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveAssetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	asset, err := h.service.Create(ctx, &req.Asset)
	if err != nil {
		h.logger.ErrorContext(ctx, "create asset failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, asset)
}

func (h *Handler) HandleResolveAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResolveAssetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	asset, err := h.service.Resolve(ctx, req.Criteria)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResolveResponse(asset))
}

func (h *Handler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	assetID, err := id.ParseAssetID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.service.Get(ctx, assetID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get asset failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

func (h *Handler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	assetID, err := id.ParseAssetID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveAssetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	asset, err := h.service.Update(ctx, assetID, &req.Asset)
	if err != nil {
		h.logger.ErrorContext(ctx, "update asset failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

func (h *Handler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	assetID, err := id.ParseAssetID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, assetID); err != nil {
		h.logger.ErrorContext(ctx, "delete asset failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
