package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *captureSink) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *captureSink) list() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

type failingSink struct {
	err error
}

func (s *failingSink) Append(_ context.Context, _ Entry) error {
	return s.err
}

func TestRecorder_RecordStoresEntry(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder([]Sink{sink})

	rec.Record(context.Background(), Entry{User: "admin", Method: "GET", Path: "/api/badges"})

	entries := sink.list()
	require.Len(t, entries, 1)
	assert.Equal(t, "admin", entries[0].User)
	assert.Equal(t, "/api/badges", entries[0].Path)
}

func TestRecorder_StampsTimeWhenZero(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder([]Sink{sink})

	before := time.Now().UTC()
	rec.Record(context.Background(), Entry{User: "admin"})
	after := time.Now().UTC()

	entries := sink.list()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Time.Before(before))
	assert.False(t, entries[0].Time.After(after))
}

func TestRecorder_PreservesExistingTime(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder([]Sink{sink})

	customTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.Record(context.Background(), Entry{User: "admin", Time: customTime})

	entries := sink.list()
	require.Len(t, entries, 1)
	assert.Equal(t, customTime, entries[0].Time)
}

func TestRecorder_FansOutToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	rec := NewRecorder([]Sink{first, second})

	rec.Record(context.Background(), Entry{Path: "/api/vcts"})

	require.Len(t, first.list(), 1)
	require.Len(t, second.list(), 1)
}

func TestRecorder_SinkFailureDoesNotStopOthers(t *testing.T) {
	logBuf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logBuf, nil))
	sink := &captureSink{}
	rec := NewRecorder(
		[]Sink{&failingSink{err: errors.New("disk full")}, sink},
		WithRecorderLogger(logger),
	)

	rec.Record(context.Background(), Entry{Path: "/api/layouts"})

	require.Len(t, sink.list(), 1)
	assert.Contains(t, logBuf.String(), "disk full")
}

func TestRecorder_AsyncDrainsOnClose(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder([]Sink{sink}, WithAsyncBuffer(16))

	for range 5 {
		rec.Record(context.Background(), Entry{User: "admin"})
	}
	rec.Close()

	assert.Len(t, sink.list(), 5)
}

func TestRecorder_AsyncDropsWhenBufferFull(t *testing.T) {
	logBuf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logBuf, nil))

	// Block the worker so the buffer cannot drain.
	release := make(chan struct{})
	blocking := &blockingSink{release: release, consumed: make(chan struct{})}
	rec := NewRecorder([]Sink{blocking}, WithAsyncBuffer(1), WithRecorderLogger(logger))

	rec.Record(context.Background(), Entry{Path: "/p1"})
	blocking.waitConsumed()
	rec.Record(context.Background(), Entry{Path: "/p2"})
	rec.Record(context.Background(), Entry{Path: "/p3"}) // buffer full, dropped

	close(release)
	rec.Close()

	assert.Contains(t, logBuf.String(), "entry dropped")
	assert.Len(t, blocking.list(), 2)
}

// blockingSink blocks Append until released, to fill the async buffer
// deterministically.
type blockingSink struct {
	captureSink
	release  <-chan struct{}
	consumed chan struct{}
	once     sync.Once
}

func (s *blockingSink) Append(ctx context.Context, e Entry) error {
	s.once.Do(func() { close(s.consumed) })
	<-s.release
	return s.captureSink.Append(ctx, e)
}

func (s *blockingSink) waitConsumed() {
	<-s.consumed
}
