package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"badgeforge/internal/auth/models"
	lockoutStore "badgeforge/internal/auth/store/lockout"
	sessionStore "badgeforge/internal/auth/store/session"
	"badgeforge/internal/sentinel"
	id "badgeforge/pkg/domain"
)

func TestService_RunOnce_Integration(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	sessions := sessionStore.New()
	lockouts := lockoutStore.New()

	expiredSession := &models.Session{
		ID:         id.NewSessionID(),
		Username:   "admin",
		CreatedAt:  now.Add(-48 * time.Hour),
		ExpiresAt:  now.Add(-1 * time.Hour),
		LastSeenAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, sessions.Create(ctx, expiredSession))

	liveSession := &models.Session{
		ID:         id.NewSessionID(),
		Username:   "admin",
		CreatedAt:  now,
		ExpiresAt:  now.Add(24 * time.Hour),
		LastSeenAt: now,
	}
	require.NoError(t, sessions.Create(ctx, liveSession))

	// One settled record older than the retention window, one fresh.
	_, err := lockouts.RecordFailure(ctx, "login:admin:198.51.100.1", now.Add(-3*time.Hour))
	require.NoError(t, err)
	_, err = lockouts.RecordFailure(ctx, "login:admin:198.51.100.2", now)
	require.NoError(t, err)

	svc, err := New(sessions, lockouts, WithInterval(10*time.Second), WithLockoutRetention(time.Hour))
	require.NoError(t, err)

	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.DeletedSessions)
	require.Equal(t, 1, res.DeletedLockouts)

	_, err = sessions.FindByID(ctx, expiredSession.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = sessions.FindByID(ctx, liveSession.ID)
	require.NoError(t, err)

	stale, err := lockouts.Get(ctx, "login:admin:198.51.100.1")
	require.NoError(t, err)
	require.Nil(t, stale)

	fresh, err := lockouts.Get(ctx, "login:admin:198.51.100.2")
	require.NoError(t, err)
	require.NotNil(t, fresh)
}

func TestService_RequiresStores(t *testing.T) {
	_, err := New(nil, lockoutStore.New())
	require.Error(t, err)

	_, err = New(sessionStore.New(), nil)
	require.Error(t, err)
}
