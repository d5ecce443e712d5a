// Package operations implements the six filesystem handlers: read, write,
// list, mkdir, delete and stat.
//
// Every handler authorizes its path through the Gate on each call, then
// works only with the resolved path. Failures are returned as
// *toolerr.Error so callers never need to inspect raw OS errors.
package operations

import (
	"context"
	"fmt"
	"io"

	"fsgate/internal/lock"
	"fsgate/internal/logging"
	"fsgate/internal/storage"
	"fsgate/internal/toolerr"

	"github.com/gabriel-vasile/mimetype"
)

// Operation names, as used in errors and logs.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpList   = "list"
	OpMkdir  = "mkdir"
	OpDelete = "delete"
	OpStat   = "stat"
)

// DirectoryMIMEType is reported by stat for directories.
const DirectoryMIMEType = "inode/directory"

// DefaultListConcurrency bounds parallel child stats in a listing.
const DefaultListConcurrency = 16

// Gate authorizes paths. *access.Authorizer implements it.
type Gate interface {
	// Resolve returns the canonical path with all links followed.
	Resolve(path string) (string, error)
	// ResolveEntry returns the canonical path of the entry itself, with the
	// final component not followed.
	ResolveEntry(path string) (string, error)
	IsRoot(canonical string) bool
}

// Locker serializes writers per canonical path. *lock.Manager implements it.
type Locker interface {
	WithLock(ctx context.Context, path string, fn func() error) error
}

// Options configure Operations.
type Options struct {
	// MaxFileSize is the largest file read will return, in bytes.
	MaxFileSize int64
	// ListConcurrency bounds parallel stats in List. Zero selects
	// DefaultListConcurrency.
	ListConcurrency int
	// Locker is optional; without it concurrent writers race at the rename.
	Locker Locker
	Logger *logging.AppLogger
}

// Operations holds the immutable dependencies shared by all handlers and is
// safe for concurrent use.
type Operations struct {
	gate        Gate
	store       storage.Storage
	locker      Locker
	maxFileSize int64
	listLimit   int
	logger      *logging.AppLogger
}

// New wires handlers to a gate and a storage provider.
func New(gate Gate, store storage.Storage, opts Options) (*Operations, error) {
	if gate == nil {
		return nil, fmt.Errorf("gate is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive, got %d", opts.MaxFileSize)
	}
	if opts.ListConcurrency <= 0 {
		opts.ListConcurrency = DefaultListConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefault()
	}

	return &Operations{
		gate:        gate,
		store:       store,
		locker:      opts.Locker,
		maxFileSize: opts.MaxFileSize,
		listLimit:   opts.ListConcurrency,
		logger:      opts.Logger,
	}, nil
}

// MaxFileSize is the configured read limit.
func (o *Operations) MaxFileSize() int64 { return o.maxFileSize }

// fail classifies err for op on the caller supplied path, prefixing the
// message with what was being attempted.
func fail(op, path, what string, err error) error {
	return toolerr.Classify(op, path, fmt.Errorf("%s: %w", what, err))
}

// ioFail is fail for operations whose only storage failure kind is IOError.
func ioFail(op, path, what string, err error) error {
	return toolerr.Wrap(toolerr.IOError, op, path, fmt.Errorf("%s: %w", what, err))
}

// denied fills in op on an authorization failure.
func denied(op string, err error) error {
	return toolerr.Classify(op, "", err)
}

// detectMIME sniffs the content type from the first bytes of r.
func detectMIME(r io.Reader) string {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "application/octet-stream"
	}
	return m.String()
}

var _ Locker = (*lock.Manager)(nil)
