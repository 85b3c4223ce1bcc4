package filelock

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockCreatesFileAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml.lock")

	unlock, err := Lock(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.NoError(t, unlock())

	// Lock can be taken again after release.
	unlock, err = Lock(path)
	require.NoError(t, err)
	assert.NoError(t, unlock())
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusive.lock")

	unlock, err := Lock(path)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		acquired bool
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		second, err := Lock(path)
		if err != nil {
			return
		}
		mu.Lock()
		acquired = true
		mu.Unlock()
		_ = second()
	}()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.False(t, acquired, "second lock must wait for the first")
	mu.Unlock()

	require.NoError(t, unlock())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second lock was never acquired")
	}
	mu.Lock()
	assert.True(t, acquired)
	mu.Unlock()
}

func TestFor(t *testing.T) {
	assert.Equal(t, "/tmp/focus/snapshot.yaml.lock", For("/tmp/focus/snapshot.yaml"))
}
