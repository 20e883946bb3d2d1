package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"badgeforge/internal/auth/models"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/httputil"
	mwauth "badgeforge/pkg/platform/middleware/auth"
	request "badgeforge/pkg/platform/middleware/request"
	"badgeforge/pkg/requestcontext"
)

// Service defines the interface for auth operations.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Login(ctx context.Context, username, password string) (*models.Session, string, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
	Principal(ctx context.Context, sessionID id.SessionID) (*models.Principal, error)
}

type Handler struct {
	service       Service
	logger        *slog.Logger
	secureCookies bool
}

// New constructs the auth handler. secureCookies should be true whenever the
// editor is served over HTTPS.
func New(service Service, logger *slog.Logger, secureCookies bool) *Handler {
	return &Handler{service: service, logger: logger, secureCookies: secureCookies}
}

// Register mounts the unauthenticated auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterProtected mounts the auth routes that run behind RequireAuth.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

// HandleLogin verifies credentials and sets the session cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, token, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, token, session.ExpiresAt)
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(session))
}

// HandleLogout revokes the current session and clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no active session"))
		return
	}

	if err := h.service.Logout(ctx, sessionID); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated principal.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no active session"))
		return
	}

	principal, err := h.service.Principal(ctx, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "load principal failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toMeResponse(principal))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     mwauth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     mwauth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
