// Package lock serializes writers to the same path with OS-level advisory
// locks. Lock files live in a dedicated directory, keyed by a hash of the
// canonical target path, so they never show up inside the served roots.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fsgate/pkg/fileops"

	"github.com/gofrs/flock"
)

var (
	// ErrLockTimeout is returned when acquiring a lock times out.
	ErrLockTimeout = errors.New("timeout acquiring lock")
	// ErrPathRequired is returned when the path to lock is empty.
	ErrPathRequired = errors.New("path is required")
	// ErrNilLock is returned when a nil lock handle is released.
	ErrNilLock = errors.New("nil lock handle")
)

// shortPollInterval is the interval to sleep when polling for a lock.
const shortPollInterval = 10 * time.Millisecond

// DefaultTimeout bounds how long a writer waits for another writer.
const DefaultTimeout = 30 * time.Second

// FileLock represents a handle to an OS-level file lock.
type FileLock struct {
	Path  string
	flock *flock.Flock
}

// Manager hands out per-path locks backed by files in dir.
type Manager struct {
	dir     string
	timeout time.Duration
}

// NewManager creates dir if needed. A non-positive timeout selects
// DefaultTimeout.
func NewManager(dir string, timeout time.Duration) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("lock directory is required")
	}
	if err := fileops.EnsureDirectoryExists(dir); err != nil {
		return nil, fmt.Errorf("failed to prepare lock directory: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{dir: dir, timeout: timeout}, nil
}

// Dir is the directory lock files are kept in.
func (m *Manager) Dir() string { return m.dir }

// lockFile maps a path to its lock file name.
func (m *Manager) lockFile(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(m.dir, hex.EncodeToString(sum[:16])+".lock")
}

// Acquire blocks until the exclusive lock for path is held, ctx is done or
// the manager timeout elapses.
func (m *Manager) Acquire(ctx context.Context, path string) (*FileLock, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	fileLock := flock.New(m.lockFile(path))
	locked, err := fileLock.TryLockContext(ctx, shortPollInterval)
	if err != nil || !locked {
		fileLock.Close()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("error acquiring file lock for %s: %w", path, err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}

	return &FileLock{Path: path, flock: fileLock}, nil
}

// Release releases the given lock. The lock file itself is left in place;
// removing it would race with a waiter that already opened it.
func (m *Manager) Release(lock *FileLock) error {
	if lock == nil {
		return ErrNilLock
	}
	if lock.flock == nil {
		return nil
	}
	if err := lock.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock for %s: %w", lock.Path, err)
	}
	return nil
}

// WithLock runs fn while holding the lock for path.
func (m *Manager) WithLock(ctx context.Context, path string, fn func() error) error {
	l, err := m.Acquire(ctx, path)
	if err != nil {
		return err
	}
	defer m.Release(l)
	return fn()
}
