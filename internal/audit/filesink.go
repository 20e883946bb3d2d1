package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	dErrors "badgeforge/pkg/domain-errors"
)

// FileSink appends entries as JSON lines to a log file. One line per
// request keeps the file greppable and easy to ship to external tooling.
type FileSink struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewFileSink opens (or creates) the log file in append mode.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create access log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "open access log")
	}
	return &FileSink{path: path, file: f}, nil
}

// Append writes one JSON line for the entry.
func (s *FileSink) Append(_ context.Context, entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal access log entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("write access log entry: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
