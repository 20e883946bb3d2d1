// Package models holds the auth domain types: login sessions for the single
// admin principal and lockout records for failed attempts.
package models

import (
	"time"

	id "badgeforge/pkg/domain"
)

// Session is a server-side login session. The cookie only carries a signed
// reference; revocation and expiry are decided here.
type Session struct {
	ID       id.SessionID
	Username string

	// Display metadata for the settings UI.
	ClientName string // e.g., "Chrome 120 on Windows 10"

	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
	RevokedAt  *time.Time
}

// IsExpired reports whether the session has passed its expiry at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsRevoked reports whether the session has been explicitly revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// Revoke marks the session revoked at the given time.
// Returns false if the session was already revoked.
func (s *Session) Revoke(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	s.RevokedAt = &now
	return true
}

// RecordActivity updates the last-seen timestamp.
func (s *Session) RecordActivity(at time.Time) {
	s.LastSeenAt = at
}

// Principal describes the authenticated user as returned by /auth/me.
type Principal struct {
	Username         string
	SessionExpiresAt time.Time
}

// Lockout tracks failed login attempts for one username+IP pair.
type Lockout struct {
	Key           string
	FailureCount  int
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

// IsLocked reports whether the record holds an active hard lock.
func (l *Lockout) IsLocked(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}
