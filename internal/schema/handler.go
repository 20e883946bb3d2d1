package schema

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
	"badgeforge/pkg/platform/validation"
)

// RegisterSchemaRequest is the registration payload: the whole schema document.
type RegisterSchemaRequest struct {
	CredentialSchema
}

func (r *RegisterSchemaRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.URI = strings.TrimSpace(r.URI)
	for i := range r.Properties {
		r.Properties[i].Name = strings.TrimSpace(r.Properties[i].Name)
	}
}

func (r *RegisterSchemaRequest) Validate() error {
	if err := validation.CheckRequired("name", r.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("uri", r.URI, validation.MaxURILength); err != nil {
		return err
	}
	return validation.CheckSliceCount("properties", len(r.Properties), validation.MaxClaims)
}

type ListSchemasResponse struct {
	Schemas []*CredentialSchema `json:"schemas"`
	Count   int                 `json:"count"`
}

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/schemas", h.HandleListSchemas)
	r.Post("/schemas", h.HandleRegisterSchema)
	r.Get("/schemas/{id}", h.HandleGetSchema)
	r.Delete("/schemas/{id}", h.HandleDeleteSchema)
}

func (h *Handler) HandleListSchemas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	schemas, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list schemas failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	if schemas == nil {
		schemas = []*CredentialSchema{}
	}

	httputil.WriteJSON(w, http.StatusOK, &ListSchemasResponse{Schemas: schemas, Count: len(schemas)})
}

func (h *Handler) HandleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterSchemaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	schema, err := h.service.Register(ctx, &req.CredentialSchema)
	if err != nil {
		h.logger.ErrorContext(ctx, "register schema failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, schema)
}

func (h *Handler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	schemaID, err := id.ParseSchemaID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid schema id"))
		return
	}

	schema, err := h.service.Get(ctx, schemaID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get schema failed", "error", err, "request_id", requestID, "schema_id", schemaID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, schema)
}

func (h *Handler) HandleDeleteSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	schemaID, err := id.ParseSchemaID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid schema id"))
		return
	}

	if err := h.service.Delete(ctx, schemaID); err != nil {
		h.logger.ErrorContext(ctx, "delete schema failed", "error", err, "request_id", requestID, "schema_id", schemaID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
