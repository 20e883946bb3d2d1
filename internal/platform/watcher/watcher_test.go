package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReloadsRegisteredFileOnWrite(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	w := New(dir, testLogger())
	w.Register("badges.json", func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "badges.json"), []byte("[]"), 0o640))

	assert.Eventually(t, func() bool {
		return reloads.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestIgnoresUnregisteredFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	w := New(dir, testLogger())
	w.Register("badges.json", func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o640))

	time.Sleep(2 * debounceDuration)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestDebounceCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	w := New(dir, testLogger())
	w.Register("vcts.json", func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(dir, "vcts.json")
	for range 5 {
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o640))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return reloads.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	// The burst happened within one debounce window.
	time.Sleep(2 * debounceDuration)
	assert.LessOrEqual(t, reloads.Load(), int32(2))
}

func TestStartFailsOnMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), testLogger())
	err := w.Start(context.Background())
	require.Error(t, err)
}
