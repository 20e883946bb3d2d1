// Package audit records who did what through the editor API. Entries land in
// a capped in-memory ring for the settings panel and, best-effort, in a JSONL
// file alongside the artifact stores.
package audit

import "time"

// Entry is one access-log line. Keep it transport-agnostic so stores and
// sinks can fan out.
type Entry struct {
	Time       time.Time `json:"time"`
	User       string    `json:"user"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	RequestID  string    `json:"request_id,omitempty"`
	Client     string    `json:"client,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
}

// Query filters the ring store listing. Zero values mean "no filter".
type Query struct {
	// Limit caps the number of returned entries; 0 applies the default.
	Limit int
	// User filters by exact principal name.
	User string
	// Path filters by substring match on the request path.
	Path string
}

// DefaultListLimit is applied when a query does not specify a limit.
const DefaultListLimit = 100
