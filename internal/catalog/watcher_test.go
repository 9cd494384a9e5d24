package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymtracker/internal/catalog"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workouts.json")
	require.NoError(t, os.WriteFile(path, []byte(baseCatalogJSON), 0o600))

	var reloads atomic.Int32
	w := catalog.NewWatcher(path, 20*time.Millisecond, func(ctx context.Context) error {
		reloads.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()

	// unrelated files in the same dir are ignored
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())

	require.NoError(t, os.WriteFile(path, []byte(baseCatalogJSON), 0o600))
	assert.Eventually(t, func() bool {
		return reloads.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
