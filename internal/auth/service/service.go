// Package service implements login, logout, and session validation for the
// single admin principal. Credentials come from configuration; sessions live
// server-side so revocation works even though the cookie carries a JWT.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"badgeforge/internal/audit"
	"badgeforge/internal/auth/metrics"
	"badgeforge/internal/auth/models"
	jwttoken "badgeforge/internal/jwt_token"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	mwauth "badgeforge/pkg/platform/middleware/auth"
	"badgeforge/pkg/requestcontext"
	"badgeforge/pkg/secrets"
)

// Lockout policy defaults: window counts recent failures, threshold trips the
// hard lock, duration is how long the pair stays locked.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutWindow    = 15 * time.Minute
	DefaultLockoutDuration  = 15 * time.Minute
)

// SessionStore persists login sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	RevokeSession(ctx context.Context, sessionID id.SessionID, now time.Time) error
	AdvanceLastSeen(ctx context.Context, sessionID id.SessionID, at time.Time) error
}

// LockoutStore tracks failed login attempts per username+IP pair.
type LockoutStore interface {
	Get(ctx context.Context, key string) (*models.Lockout, error)
	RecordFailure(ctx context.Context, key string, now time.Time) (*models.Lockout, error)
	Update(ctx context.Context, record *models.Lockout) error
	Clear(ctx context.Context, key string) error
}

// TokenService mints and validates session cookie tokens.
type TokenService interface {
	GenerateSessionToken(ctx context.Context, sessionID id.SessionID, username string) (string, error)
	ValidateSessionToken(token string) (*jwttoken.SessionClaims, error)
}

// Config carries the admin principal and session policy.
type Config struct {
	AdminUsername string
	PasswordHash  string // bcrypt
	SessionTTL    time.Duration
}

type Service struct {
	sessions SessionStore
	lockouts LockoutStore
	tokens   TokenService
	logger   *slog.Logger
	metrics  *metrics.Metrics

	adminUsername string
	passwordHash  string
	sessionTTL    time.Duration

	lockoutThreshold int
	lockoutWindow    time.Duration
	lockoutDuration  time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLockoutPolicy overrides the default failed-login lockout policy.
func WithLockoutPolicy(threshold int, window, duration time.Duration) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.lockoutThreshold = threshold
		}
		if window > 0 {
			s.lockoutWindow = window
		}
		if duration > 0 {
			s.lockoutDuration = duration
		}
	}
}

func New(cfg Config, sessions SessionStore, lockouts LockoutStore, tokens TokenService, opts ...Option) (*Service, error) {
	if sessions == nil || lockouts == nil || tokens == nil {
		return nil, fmt.Errorf("session store, lockout store, and token service are required")
	}
	if cfg.AdminUsername == "" || cfg.PasswordHash == "" {
		return nil, fmt.Errorf("admin username and password hash are required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive")
	}

	svc := &Service{
		sessions:         sessions,
		lockouts:         lockouts,
		tokens:           tokens,
		logger:           slog.Default(),
		adminUsername:    cfg.AdminUsername,
		passwordHash:     cfg.PasswordHash,
		sessionTTL:       cfg.SessionTTL,
		lockoutThreshold: DefaultLockoutThreshold,
		lockoutWindow:    DefaultLockoutWindow,
		lockoutDuration:  DefaultLockoutDuration,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Login verifies credentials and creates a session. The returned string is
// the signed cookie token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, string, error) {
	now := requestcontext.Now(ctx)
	key := lockoutKey(username, requestcontext.ClientIP(ctx))

	record, err := s.lockouts.Get(ctx, key)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "check login lockout")
	}
	if record != nil && record.IsLocked(now) {
		return nil, "", dErrors.New(dErrors.CodeLocked, "too many failed login attempts")
	}
	// A quiet window resets the failure count.
	if record != nil && now.Sub(record.LastFailureAt) > s.lockoutWindow {
		if err := s.lockouts.Clear(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to reset lockout window", "error", err)
		}
	}

	if !s.credentialsValid(username, password) {
		return nil, "", s.recordFailure(ctx, key, now)
	}

	if err := s.lockouts.Clear(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to clear lockout after login", "error", err)
	}

	session := &models.Session{
		ID:         id.NewSessionID(),
		Username:   username,
		ClientName: audit.DescribeClient(requestcontext.UserAgent(ctx)),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.sessionTTL),
		LastSeenAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "create session")
	}

	token, err := s.tokens.GenerateSessionToken(ctx, session.ID, username)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "mint session token")
	}

	if s.metrics != nil {
		s.metrics.IncrementLogins()
		s.metrics.IncrementActiveSessions()
	}
	return session, token, nil
}

// Logout revokes the session. Revoking an already-revoked session is a no-op;
// logout must be idempotent for the browser.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	now := requestcontext.Now(ctx)
	if err := s.sessions.RevokeSession(ctx, sessionID, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "revoke session")
		}
	}
	if s.metrics != nil {
		s.metrics.DecrementActiveSessions()
	}
	return nil
}

// Principal returns the authenticated user for /auth/me.
func (s *Service) Principal(ctx context.Context, sessionID id.SessionID) (*models.Principal, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	return &models.Principal{
		Username:         session.Username,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

// ValidateSession checks the cookie token against the server-side session.
// It satisfies the auth middleware's SessionValidator contract.
func (s *Service) ValidateSession(ctx context.Context, token string) (*mwauth.SessionClaims, error) {
	claims, err := s.tokens.ValidateSessionToken(token)
	if err != nil {
		return nil, err
	}

	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session reference")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}

	now := requestcontext.Now(ctx)
	if session.IsRevoked() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session revoked")
	}
	if session.IsExpired(now) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}

	// Activity tracking is best-effort; a failed update must not break auth.
	if err := s.sessions.AdvanceLastSeen(ctx, sessionID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to update session activity", "error", err)
	}

	return &mwauth.SessionClaims{
		SessionID: session.ID.String(),
		Subject:   session.Username,
	}, nil
}

// credentialsValid compares both parts in constant time so a mismatch in
// either does not leak which one was wrong.
func (s *Service) credentialsValid(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	passOK := secrets.Verify(password, s.passwordHash) == nil
	return userOK && passOK
}

func (s *Service) recordFailure(ctx context.Context, key string, now time.Time) error {
	if s.metrics != nil {
		s.metrics.IncrementAuthFailures()
	}

	record, err := s.lockouts.RecordFailure(ctx, key, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "error", err)
		return dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}

	if record.FailureCount >= s.lockoutThreshold {
		lockedUntil := now.Add(s.lockoutDuration)
		record.LockedUntil = &lockedUntil
		if err := s.lockouts.Update(ctx, record); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist login lockout", "error", err)
		}
		if s.metrics != nil {
			s.metrics.IncrementLockouts()
		}
		s.logger.WarnContext(ctx, "login lockout triggered",
			"failure_count", record.FailureCount,
			"locked_until", lockedUntil,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeLocked, "too many failed login attempts")
	}

	return dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
}

func lockoutKey(username, ip string) string {
	return fmt.Sprintf("login:%s:%s", username, ip)
}
