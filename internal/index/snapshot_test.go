package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_PublishAndCurrent(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Current())

	s1 := &Snapshot{Version: 1}
	assert.Nil(t, m.Publish(s1))
	assert.Same(t, s1, m.Current())

	s2 := &Snapshot{Version: 2}
	old := m.Publish(s2)
	assert.Same(t, s1, old)
	assert.Same(t, s2, m.Current())
}

func TestManager_ConcurrentReadersDuringPublish(t *testing.T) {
	m := NewManager()
	m.Publish(&Snapshot{Version: 1})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := m.Current()
				// A reader never observes a nil or torn snapshot
				require.NotNil(t, s)
				require.Positive(t, s.Version)
			}
		}()
	}

	for v := 2; v <= 50; v++ {
		m.Publish(&Snapshot{Version: v})
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 50, m.Current().Version)
}

func TestCurrentVersion_Roundtrip(t *testing.T) {
	dir := t.TempDir()

	v, err := CurrentVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, writeCurrentVersion(dir, 3))

	v, err = CurrentVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCurrentVersion_CorruptMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, currentVersionFile), []byte("not a number"), 0o644))

	_, err := CurrentVersion(dir)
	require.Error(t, err)
}

func TestWatcher_DebouncedRebuild(t *testing.T) {
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages.json")
	require.NoError(t, os.WriteFile(pages, []byte("[]"), 0o644))

	rebuilds := make(chan struct{}, 16)
	w, err := NewWatcher(pages, 50*time.Millisecond, func(ctx context.Context) error {
		rebuilds <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the window triggers a single rebuild
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(pages, []byte("[]"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-rebuilds:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild was not triggered")
	}

	select {
	case <-rebuilds:
		t.Fatal("burst triggered more than one rebuild")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages.json")
	require.NoError(t, os.WriteFile(pages, []byte("[]"), 0o644))

	rebuilds := make(chan struct{}, 16)
	w, err := NewWatcher(pages, 50*time.Millisecond, func(ctx context.Context) error {
		rebuilds <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-rebuilds:
		t.Fatal("unrelated file triggered a rebuild")
	case <-time.After(300 * time.Millisecond):
	}
}
