package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SessionStore exposes cleanup for expired sessions.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// LockoutStore exposes cleanup for settled login-failure records.
type LockoutStore interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Result summarizes the deletions performed by a cleanup run.
type Result struct {
	DeletedSessions int
	DeletedLockouts int
}

// Service periodically removes expired sessions and settled lockout records.
type Service struct {
	sessionStore     SessionStore
	lockoutStore     LockoutStore
	interval         time.Duration
	lockoutRetention time.Duration
	logger           *slog.Logger
}

// Option configures Service.
type Option func(*Service)

// WithInterval overrides the cleanup interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLockoutRetention overrides how long settled lockout records are kept.
func WithLockoutRetention(retention time.Duration) Option {
	return func(s *Service) {
		if retention > 0 {
			s.lockoutRetention = retention
		}
	}
}

// WithLogger overrides the logger used for cleanup errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service with required stores and options applied.
func New(sessionStore SessionStore, lockoutStore LockoutStore, opts ...Option) (*Service, error) {
	if sessionStore == nil || lockoutStore == nil {
		return nil, fmt.Errorf("sessionStore and lockoutStore are required")
	}
	svc := &Service{
		sessionStore:     sessionStore,
		lockoutStore:     lockoutStore,
		interval:         5 * time.Minute,
		lockoutRetention: time.Hour,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "auth cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single cleanup sweep. Store failures are aggregated so
// one failing store does not block the other.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	now := time.Now()
	var res Result
	var errs []error

	deletedSessions, err := s.sessionStore.DeleteExpiredSessions(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired sessions: %w", err))
	} else {
		res.DeletedSessions = deletedSessions
	}

	deletedLockouts, err := s.lockoutStore.DeleteStale(ctx, now.Add(-s.lockoutRetention))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete stale lockouts: %w", err))
	} else {
		res.DeletedLockouts = deletedLockouts
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
