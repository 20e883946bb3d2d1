package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	id "badgeforge/pkg/domain"
	"badgeforge/pkg/requestcontext"
)

// SessionCookieName is the cookie carrying the editor session token.
const SessionCookieName = "badgeforge_session"

// SessionValidator defines the interface for validating session tokens.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*SessionClaims, error)
}

// SessionClaims represents the claims we expect from the session validator.
type SessionClaims struct {
	SessionID string
	Subject   string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth returns middleware that validates the session cookie and
// populates context with the typed session ID and principal name.
//
// Cookie SETTING is handled by the auth handler (response-side concern).
func RequireAuth(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				requestID := requestcontext.RequestID(ctx)
				logger.WarnContext(ctx, "unauthorized access - missing session cookie",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing session cookie")
				return
			}

			claims, err := validator.ValidateSession(ctx, cookie.Value)
			if err != nil {
				requestID := requestcontext.RequestID(ctx)
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
				return
			}

			// Parse string IDs to typed IDs
			sessionID, err := id.ParseSessionID(claims.SessionID)
			if err != nil || claims.Subject == "" {
				requestID := requestcontext.RequestID(ctx)
				logger.WarnContext(ctx, "unauthorized access - malformed session claims",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
				return
			}

			ctx = requestcontext.WithSessionID(ctx, sessionID)
			ctx = requestcontext.WithSubject(ctx, claims.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
