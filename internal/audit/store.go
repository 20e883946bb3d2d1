package audit

import (
	"context"
	"strings"
	"sync"
)

// Sink receives access-log entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// RingStore keeps the most recent entries in a fixed-capacity ring buffer.
// Older entries are overwritten; the settings panel only ever shows recent
// activity.
type RingStore struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewRingStore creates a ring holding up to capacity entries.
func NewRingStore(capacity int) *RingStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingStore{entries: make([]Entry, capacity)}
}

// Append stores an entry, evicting the oldest when full.
func (s *RingStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = entry
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// List returns entries newest-first, filtered by the query.
func (s *RingStore) List(_ context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.next
	if s.full {
		count = len(s.entries)
	}

	result := make([]Entry, 0, min(limit, count))
	// Walk backwards from the most recent slot.
	for i := 1; i <= count && len(result) < limit; i++ {
		idx := (s.next - i + len(s.entries)) % len(s.entries)
		entry := s.entries[idx]

		if q.User != "" && entry.User != q.User {
			continue
		}
		if q.Path != "" && !strings.Contains(entry.Path, q.Path) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// Len returns the number of stored entries.
func (s *RingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.entries)
	}
	return s.next
}
