// Package handler exposes the Orbit settings panel and the Orbit API proxy
// over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/orbit/models"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// Service is the domain interface the handler depends on.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Status(ctx context.Context) (*models.ConfigStatus, error)
	Save(ctx context.Context, req models.SaveRequest) (*models.ConfigStatus, error)
	Clear(ctx context.Context) (*models.ConfigStatus, error)
	Health(ctx context.Context) (*models.HealthReport, error)
	Connection(ctx context.Context) (*models.ConnectionInfo, error)
	RegisterSchema(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
	RegisterCredentialDefinition(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the Orbit settings and proxy routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/settings/orbit", h.HandleGetSettings)
	r.Put("/settings/orbit", h.HandleSaveSettings)
	r.Delete("/settings/orbit", h.HandleClearSettings)
	r.Get("/settings/orbit/health", h.HandleHealth)
	r.Get("/orbit/connection", h.HandleConnection)
	r.Post("/orbit/schemas", h.HandleRegisterSchema)
	r.Post("/orbit/credential-definitions", h.HandleRegisterCredentialDefinition)
}

// HandleGetSettings returns the active configuration view. The API key never
// appears in it.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	status, err := h.service.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "load orbit settings failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleSaveSettings persists the settings file with the API key encrypted.
func (h *Handler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveOrbitSettingsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.service.Save(ctx, req.SaveRequest)
	if err != nil {
		h.logger.ErrorContext(ctx, "save orbit settings failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleClearSettings deletes the settings file and returns the
// environment-backed configuration it fell back to.
func (h *Handler) HandleClearSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	status, err := h.service.Clear(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "clear orbit settings failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleHealth probes the configured Orbit base URLs in parallel.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	report, err := h.service.Health(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "orbit health check failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleConnection verifies the lob credentials against the LOB API.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	info, err := h.service.Connection(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "orbit connection check failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, info)
}

// HandleRegisterSchema forwards a credential-schema registration to Orbit
// and relays the upstream response.
func (h *Handler) HandleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	payload, ok := h.readPayload(w, r, requestID)
	if !ok {
		return
	}

	res, err := h.service.RegisterSchema(ctx, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "orbit schema registration failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleRegisterCredentialDefinition forwards a credential-definition
// registration to Orbit and relays the upstream response.
func (h *Handler) HandleRegisterCredentialDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	payload, ok := h.readPayload(w, r, requestID)
	if !ok {
		return
	}

	res, err := h.service.RegisterCredentialDefinition(ctx, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "orbit credential definition registration failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// readPayload reads a raw JSON body for proxying. The router's body-limit
// middleware caps the size before it gets here.
func (h *Handler) readPayload(w http.ResponseWriter, r *http.Request, requestID string) (json.RawMessage, bool) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read request body", "error", err, "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if len(body) == 0 || !json.Valid(body) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be a JSON document"))
		return nil, false
	}
	return body, true
}
