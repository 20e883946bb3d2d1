package jsonfile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.json")

	in := map[string]doc{"a": {Name: "alpha", Count: 3}}
	require.NoError(t, Save(path, in))

	var out map[string]doc
	require.NoError(t, Load(path, &out))
	assert.Equal(t, in, out)
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "absent.json"), &doc{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o640))

	err := Load(path, &doc{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse bad.json")
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "docs.json")
	require.NoError(t, Save(path, doc{Name: "n"}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSaveOutputIsIndented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, Save(path, doc{Name: "alpha", Count: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{\n  \"name\": \"alpha\"")
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestSaveReplacesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, Save(path, doc{Name: "old"}))
	require.NoError(t, Save(path, doc{Name: "new"}))

	var out doc
	require.NoError(t, Load(path, &out))
	assert.Equal(t, "new", out.Name)
}

func TestConcurrentSavesLeaveWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.json")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = Save(path, doc{Name: "writer", Count: n})
		}(i)
	}
	wg.Wait()

	var out doc
	require.NoError(t, Load(path, &out))
	assert.Equal(t, "writer", out.Name)
}
