package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewarePinsTime(t *testing.T) {
	var first, second time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = Now(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.False(t, first.IsZero())
	assert.Equal(t, first, second, "time must stay pinned for the whole request")
}

func TestWithTime(t *testing.T) {
	fixed := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))
}

func TestNowFallsBack(t *testing.T) {
	before := time.Now().Add(-time.Second)
	got := Now(context.Background())
	assert.True(t, got.After(before))
}
