package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/audit"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	request "badgeforge/pkg/platform/middleware/request"
)

// MaxListLimit caps how many entries a single request may ask for. The ring
// never holds more than its capacity, so larger limits only waste allocation.
const MaxListLimit = 1000

// Service defines the interface for access log queries.
type Service interface {
	List(ctx context.Context, q audit.Query) ([]audit.Entry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/settings/access-logs", h.HandleListAccessLogs)
}

// HandleListAccessLogs returns recent access log entries, newest first.
// Supports limit, user (exact match), and path (substring match) query params.
func (h *Handler) HandleListAccessLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	q := audit.Query{
		User: r.URL.Query().Get("user"),
		Path: r.URL.Query().Get("path"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		if limit > MaxListLimit {
			limit = MaxListLimit
		}
		q.Limit = limit
	}

	entries, err := h.service.List(ctx, q)
	if err != nil {
		h.logger.ErrorContext(ctx, "list access logs failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &ListAccessLogsResponse{
		Entries: entries,
		Count:   len(entries),
	})
}

// ListAccessLogsResponse wraps the entries so the payload can grow fields
// without breaking clients. Entries serialize directly; the audit model
// carries no internal-only state.
type ListAccessLogsResponse struct {
	Entries []audit.Entry `json:"entries"`
	Count   int           `json:"count"`
}
