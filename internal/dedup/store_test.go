package dedup

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLoadMissingFile(t *testing.T) {
	store := Load(filepath.Join(t.TempDir(), "missing.ids"), testLogger())

	assert.Equal(t, 0, store.Len())
	assert.False(t, store.Contains("anything"))
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.ids")

	store := Load(path, testLogger())
	store.Add("msg-1")
	store.Add("msg-2")
	store.Add("msg-1")
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Persist())

	reloaded := Load(path, testLogger())
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Contains("msg-1"))
	assert.True(t, reloaded.Contains("msg-2"))
	assert.False(t, reloaded.Contains("msg-3"))
}

func TestLoadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.ids")
	require.NoError(t, os.WriteFile(path, []byte("a\n\n  \nb\n"), 0o644))

	store := Load(path, testLogger())
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Contains("a"))
	assert.True(t, store.Contains("b"))
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := Load(filepath.Join(dir, "processed.ids"), testLogger())
	store.Add("msg-1")
	require.NoError(t, store.Persist())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "processed.ids", entries[0].Name())
}

func TestPersistFailureKeepsMemorySet(t *testing.T) {
	store := Load(filepath.Join(t.TempDir(), "no", "such", "dir", "x.ids"), testLogger())
	store.Add("msg-1")

	err := store.Persist()
	assert.Error(t, err)
	assert.True(t, store.Contains("msg-1"))
}

func TestPersistedFileIsNewlineDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.ids")
	store := Load(path, testLogger())
	store.Add("only-one")
	require.NoError(t, store.Persist())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "only-one", strings.TrimSpace(string(data)))
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}
