package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnLoadableFiles(t *testing.T) {
	dir := t.TempDir()

	var changes atomic.Int32
	w, err := New(dir, func() { changes.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.csv"), []byte("Base\n"), 0o600))

	assert.Eventually(t, func() bool {
		return changes.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()

	var changes atomic.Int32
	w, err := New(dir, func() { changes.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, changes.Load())
}

func TestWatcher_EmptyDirRejected(t *testing.T) {
	_, err := New("", nil, nil)
	assert.Error(t, err)
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
