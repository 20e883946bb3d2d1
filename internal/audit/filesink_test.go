package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	sink, err := NewFileSink(path)
	require.NoError(t, err)
	defer sink.Close()

	when := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, sink.Append(context.Background(), Entry{
		Time: when, User: "admin", Method: "PUT", Path: "/api/badges/employee", Status: 200, DurationMs: 12,
	}))
	require.NoError(t, sink.Append(context.Background(), Entry{
		Time: when.Add(time.Minute), User: "admin", Method: "DELETE", Path: "/api/vcts/x", Status: 404, DurationMs: 3,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "admin", first.User)
	assert.Equal(t, "/api/badges/employee", first.Path)
	assert.Equal(t, 200, first.Status)
	assert.True(t, first.Time.Equal(when))
}

func TestFileSink_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(context.Background(), Entry{Path: "/first"}))
	require.NoError(t, sink.Close())

	sink, err = NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(context.Background(), Entry{Path: "/second"}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "/first")
	assert.Contains(t, lines[1], "/second")
}

func TestFileSink_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "access.log")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Append(context.Background(), Entry{Path: "/x"}))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
