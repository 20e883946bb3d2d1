package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"badgeforge/internal/audit/metrics"
)

// Recorder captures access log entries. It fans entries out to one or more
// sinks so the in-memory ring and the on-disk log stay in step, and can
// buffer asynchronously to keep request latency flat.
type Recorder struct {
	sinks   []Sink
	entries chan Entry
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	async   bool
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Entries are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) RecorderOption {
	return func(r *Recorder) {
		if size > 0 {
			r.entries = make(chan Entry, size)
			r.async = true
		}
	}
}

// WithRecorderLogger sets a logger for async error reporting.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics attaches Prometheus counters for recorded and dropped entries.
func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func NewRecorder(sinks []Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{sinks: sinks}
	for _, opt := range opts {
		opt(r)
	}
	if r.async {
		r.wg.Add(1)
		go r.processEntries()
	}
	return r
}

// processEntries runs in a goroutine and persists entries from the channel.
func (r *Recorder) processEntries() {
	defer r.wg.Done()
	for entry := range r.entries {
		r.appendAll(context.Background(), entry)
	}
}

func (r *Recorder) appendAll(ctx context.Context, entry Entry) {
	for _, sink := range r.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			if r.metrics != nil {
				r.metrics.IncrementSinkError()
			}
			if r.logger != nil {
				r.logger.Error("failed to persist access log entry",
					"error", err,
					"user", entry.User,
					"path", entry.Path,
				)
			}
		}
	}
}

// Close shuts down the async recorder and waits for pending entries to drain.
func (r *Recorder) Close() {
	if r.async && r.entries != nil {
		close(r.entries)
		r.wg.Wait()
	}
}

// Record stores one entry. In async mode the send is non-blocking; entries
// are dropped when the buffer is full so the hot path never stalls.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	if r.metrics != nil {
		r.metrics.IncrementRecorded()
	}
	if r.async {
		select {
		case r.entries <- entry:
		default:
			if r.metrics != nil {
				r.metrics.IncrementDropped()
			}
			if r.logger != nil {
				r.logger.Warn("access log buffer full, entry dropped",
					"user", entry.User,
					"path", entry.Path,
				)
			}
		}
		return
	}
	r.appendAll(ctx, entry)
}
