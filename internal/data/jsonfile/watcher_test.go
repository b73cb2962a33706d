package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_SeesAtomicSave(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workspace.json")

	watcher, err := NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := watcher.Watch(ctx)

	require.NoError(t, NewWorkspaceStore(path).Save(ctx, snapshot()))

	select {
	case change := <-changes:
		assert.Equal(t, path, change.Path)
		assert.False(t, change.Timestamp.IsZero())
	case <-ctx.Done():
		t.Fatal("timeout waiting for change")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "workspace.json")

	watcher, err := NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := watcher.Watch(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "asmbench.log"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(path+".tmp", []byte("{}"), 0o644))

	select {
	case change := <-changes:
		t.Fatalf("unexpected change for %s", change.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workspace.json")

	watcher, err := NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := watcher.Watch(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	timeout := time.After(300 * time.Millisecond)
	count := 0
	for {
		select {
		case <-changes:
			count++
		case <-timeout:
			assert.Equal(t, 1, count, "should receive exactly one debounced change")
			return
		}
	}
}

func TestWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workspace.json")

	watcher, err := NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	changes := watcher.Watch(ctx)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatcher_CloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	watcher, err := NewWatcher(filepath.Join(t.TempDir(), "workspace.json"))
	require.NoError(t, err)

	changes := watcher.Watch(context.Background())
	require.NoError(t, watcher.Close())

	_, ok := <-changes
	assert.False(t, ok)
}
