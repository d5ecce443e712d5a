// Package storage is the boundary between the file operations and the
// actual filesystem. Handlers only ever talk to a Storage, which makes the
// local disk one provider among possible others and lets tests inject
// failures.
package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"time"

	"fsgate/pkg/fileops"
)

// Storage abstracts the primitive filesystem calls the operations need.
//
// All paths are absolute and already authorized. Errors should wrap the
// io/fs sentinels (fs.ErrNotExist in particular) so they classify correctly.
type Storage interface {
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
	// Lstat is Stat without following a final symlink.
	Lstat(ctx context.Context, path string) (fs.FileInfo, error)
	// Open returns a reader over the file content; the caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// WriteFile creates or truncates path. The parent directory must exist.
	WriteFile(ctx context.Context, path string, data []byte) error
	ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error)
	MkdirAll(ctx context.Context, path string) error
	// RemoveAll deletes path recursively. A missing path is not an error.
	RemoveAll(ctx context.Context, path string) error
}

// Local serves the host filesystem.
type Local struct{}

// NewLocal returns the host filesystem provider.
func NewLocal() *Local { return &Local{} }

func (Local) Stat(_ context.Context, path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (Local) Lstat(_ context.Context, path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

func (Local) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (Local) WriteFile(_ context.Context, path string, data []byte) error {
	return fileops.WriteFile(path, data, 0644)
}

func (Local) ReadDir(_ context.Context, path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (Local) MkdirAll(_ context.Context, path string) error {
	return fileops.EnsureDirectoryExists(path)
}

func (Local) RemoveAll(_ context.Context, path string) error {
	return os.RemoveAll(path)
}

// Times returns creation and access times for info, which was obtained by
// stat'ing path. Where the filesystem does not record a birth time, created
// falls back to the inode change time and then to the modification time.
func Times(path string, info fs.FileInfo) (created, accessed time.Time) {
	created, accessed = platformTimes(path, info)
	if created.IsZero() {
		created = info.ModTime()
	}
	if accessed.IsZero() {
		accessed = info.ModTime()
	}
	return created, accessed
}

var _ Storage = (*Local)(nil)
