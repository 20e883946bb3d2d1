// Package jsonfile reads and writes whole JSON documents on disk. Writes are
// atomic and durable: content goes to a temp file which is fsynced and then
// renamed over the target, so readers never observe a partially written file.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	platformsync "badgeforge/pkg/platform/sync"
)

// writeLocks serializes concurrent writers per target path. Last writer wins,
// but each write lands whole.
var writeLocks = platformsync.NewShardedMutex()

// Load reads the JSON document at path into v. A missing file is reported
// as-is via os.IsNotExist so callers can start from an empty collection.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save marshals v with two-space indentation and atomically replaces path.
// Indented output keeps the files readable in review when they are committed
// to a governance repository. Parent directories are created as needed.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	writeLocks.Lock(path)
	defer writeLocks.Unlock(path)

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	// CloseAtomicallyReplace: fsync + rename (durable + atomic)
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", filepath.Base(path), err)
	}

	return nil
}
