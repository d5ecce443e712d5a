package operations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"fsgate/internal/storage"
	"fsgate/internal/toolerr"

	"golang.org/x/sync/errgroup"
)

// List returns the immediate children of a directory.
//
// Children are stat'ed in parallel, following symlinks. A child removed
// between reading the directory and stat'ing it is left out, and a dangling
// symlink is reported as the link itself. Any other stat failure fails the
// whole listing; a partial listing is never returned.
func (o *Operations) List(ctx context.Context, path string) (*Listing, error) {
	resolved, err := o.gate.Resolve(path)
	if err != nil {
		return nil, denied(OpList, err)
	}

	info, err := o.store.Stat(ctx, resolved)
	if err != nil {
		return nil, fail(OpList, path, "failed to list directory", err)
	}
	if !info.IsDir() {
		return nil, toolerr.New(toolerr.IOError, OpList, path, "failed to list directory: not a directory")
	}

	children, err := o.store.ReadDir(ctx, resolved)
	if err != nil {
		return nil, ioFail(OpList, path, "failed to list directory", err)
	}

	entries := make([]DirectoryEntry, len(children))
	present := make([]bool, len(children))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.listLimit)

	for i, child := range children {
		g.Go(func() error {
			name := child.Name()
			childInfo, err := o.statChild(gctx, filepath.Join(resolved, name))
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to stat entry %q: %w", name, err)
			}
			present[i] = true
			entries[i] = DirectoryEntry{
				Name:        name,
				IsDirectory: childInfo.IsDir(),
				Size:        uint64(childInfo.Size()),
				ModifiedAt:  childInfo.ModTime().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ioFail(OpList, path, "failed to list directory", err)
	}

	listed := make([]DirectoryEntry, 0, len(entries))
	for i, e := range entries {
		if present[i] {
			listed = append(listed, e)
		}
	}
	sort.Slice(listed, func(a, b int) bool { return listed[a].Name < listed[b].Name })

	return &Listing{Path: path, Entries: listed}, nil
}

// statChild stats a directory entry through symlinks. When the target is
// missing it falls back to the entry itself, so fs.ErrNotExist means the
// entry is gone.
func (o *Operations) statChild(ctx context.Context, path string) (fs.FileInfo, error) {
	info, err := o.store.Stat(ctx, path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return info, err
	}
	return o.store.Lstat(ctx, path)
}

// Mkdir creates a directory and any missing ancestors. An existing
// directory is success.
func (o *Operations) Mkdir(ctx context.Context, path string) (*Acknowledgement, error) {
	resolved, err := o.gate.Resolve(path)
	if err != nil {
		return nil, denied(OpMkdir, err)
	}

	if err := o.store.MkdirAll(ctx, resolved); err != nil {
		return nil, ioFail(OpMkdir, path, "failed to create directory", err)
	}

	return &Acknowledgement{Operation: OpMkdir, Path: path}, nil
}

// Stat returns metadata for a file or directory, following symlinks.
func (o *Operations) Stat(ctx context.Context, path string) (*FileMetadata, error) {
	resolved, err := o.gate.Resolve(path)
	if err != nil {
		return nil, denied(OpStat, err)
	}

	info, err := o.store.Stat(ctx, resolved)
	if err != nil {
		return nil, fail(OpStat, path, "failed to get file info", err)
	}

	meta := &FileMetadata{
		Path:        path,
		IsDirectory: info.IsDir(),
		Size:        uint64(info.Size()),
		ModifiedAt:  info.ModTime().UTC(),
		Mode:        info.Mode(),
	}
	created, accessed := storage.Times(resolved, info)
	meta.CreatedAt, meta.AccessedAt = created.UTC(), accessed.UTC()

	switch {
	case info.IsDir():
		meta.MIMEType = DirectoryMIMEType
	case info.Mode().IsRegular():
		meta.MIMEType = o.sniff(ctx, resolved)
	default:
		meta.MIMEType = "application/octet-stream"
	}

	return meta, nil
}

// sniff detects a regular file's content type. Unreadable files still stat
// successfully; they just get the generic type.
func (o *Operations) sniff(ctx context.Context, resolved string) string {
	r, err := o.store.Open(ctx, resolved)
	if err != nil {
		o.logger.Debug("MIME detection skipped", "path", resolved, "error", err)
		return "application/octet-stream"
	}
	defer r.Close()
	return detectMIME(r)
}
