package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

// BuildLock serializes index builds across processes with a file lock.
// Two concurrent rebuilds of the same data directory would interleave
// writes to the Bleve directory and the HNSW files.
type BuildLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewBuildLock creates a lock for the given data directory layout.
func NewBuildLock(layout Layout) *BuildLock {
	path := layout.LockPath()
	return &BuildLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock without blocking. A lock held elsewhere returns
// an IndexLocked error naming the holder's lock file.
func (l *BuildLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !acquired {
		e := polierrors.New(polierrors.ErrCodeIndexLocked,
			fmt.Sprintf("another build holds the lock at %s", l.path), nil)
		e.Suggestion = "wait for the running build to finish"
		return e
	}

	l.locked = true
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *BuildLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release build lock: %w", err)
	}
	return nil
}
