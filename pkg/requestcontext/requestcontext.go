// Package requestcontext carries request-scoped metadata (request ID, client
// address, evaluation time) through context without leaking transport types
// into services.
package requestcontext

import (
	"context"
	"time"

	id "badgeforge/pkg/domain"
)

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyClientIP
	keyUserAgent
	keyNow
	keySessionID
	keySubject
)

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the request ID or "" when none was set.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata returns a context carrying the remote client address and
// user agent. Set by the metadata middleware.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, ip)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

// ClientIP returns the remote client address or "" when none was set.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(keyClientIP).(string); ok {
		return v
	}
	return ""
}

// UserAgent returns the raw User-Agent header or "" when none was set.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserAgent).(string); ok {
		return v
	}
	return ""
}

// WithNow pins the evaluation time for the request. Services derive all
// timestamps from Now(ctx) so tests can inject a fixed clock.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, keyNow, now)
}

// Now returns the pinned evaluation time, falling back to wall time.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(keyNow).(time.Time); ok {
		return v
	}
	return time.Now().UTC()
}

// WithSessionID returns a context carrying the authenticated session ID.
// Set by the auth middleware after session validation.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, keySessionID, sessionID)
}

// SessionID returns the authenticated session ID, or the zero value when the
// request was not authenticated.
func SessionID(ctx context.Context) id.SessionID {
	if v, ok := ctx.Value(keySessionID).(id.SessionID); ok {
		return v
	}
	return id.SessionID{}
}

// WithSubject returns a context carrying the authenticated principal name.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, keySubject, subject)
}

// Subject returns the authenticated principal name or "" when anonymous.
func Subject(ctx context.Context) string {
	if v, ok := ctx.Value(keySubject).(string); ok {
		return v
	}
	return ""
}
