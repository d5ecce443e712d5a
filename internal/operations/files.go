package operations

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"fsgate/internal/toolerr"

	"github.com/gabriel-vasile/mimetype"
)

// Read returns the whole content of a regular file as text.
//
// The size is checked from metadata before any content is read, so an
// oversized file is rejected without being loaded. A file of exactly
// MaxFileSize bytes is returned.
func (o *Operations) Read(ctx context.Context, path string) (*FileContent, error) {
	resolved, err := o.gate.Resolve(path)
	if err != nil {
		return nil, denied(OpRead, err)
	}

	info, err := o.store.Stat(ctx, resolved)
	if err != nil {
		return nil, fail(OpRead, path, "failed to read file", err)
	}
	if info.IsDir() {
		return nil, toolerr.New(toolerr.IOError, OpRead, path, "failed to read file: path is a directory")
	}
	if !info.Mode().IsRegular() {
		return nil, toolerr.New(toolerr.IOError, OpRead, path, "failed to read file: not a regular file")
	}
	if info.Size() > o.maxFileSize {
		return nil, toolerr.Newf(toolerr.TooLarge, OpRead, path,
			"file too large: %d bytes (limit %d)", info.Size(), o.maxFileSize)
	}

	data, err := o.readLimited(ctx, resolved)
	if err != nil {
		return nil, fail(OpRead, path, "failed to read file", err)
	}
	// The file may have grown between stat and read.
	if int64(len(data)) > o.maxFileSize {
		return nil, toolerr.Newf(toolerr.TooLarge, OpRead, path,
			"file too large: more than %d bytes (limit %d)", o.maxFileSize, o.maxFileSize)
	}

	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}

	return &FileContent{
		Path:     path,
		Content:  content,
		Size:     uint64(len(data)),
		MIMEType: mimetype.Detect(data).String(),
	}, nil
}

// readLimited reads at most one byte more than the size limit, so a file
// that grew after stat is detected without loading all of it.
func (o *Operations) readLimited(ctx context.Context, resolved string) ([]byte, error) {
	r, err := o.store.Open(ctx, resolved)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, o.maxFileSize+1))
}

// Write creates or truncates a file with content, creating missing parent
// directories first. The file is truncated and written in place; writers to
// the same path are serialized when a Locker is configured.
func (o *Operations) Write(ctx context.Context, path, content string) (*Acknowledgement, error) {
	resolved, err := o.gate.Resolve(path)
	if err != nil {
		return nil, denied(OpWrite, err)
	}

	if info, err := o.store.Stat(ctx, resolved); err == nil && info.IsDir() {
		return nil, toolerr.New(toolerr.IOError, OpWrite, path, "failed to write file: path is a directory")
	}

	write := func() error {
		if err := o.store.MkdirAll(ctx, filepath.Dir(resolved)); err != nil {
			return err
		}
		return o.store.WriteFile(ctx, resolved, []byte(content))
	}

	if o.locker != nil {
		err = o.locker.WithLock(ctx, resolved, write)
	} else {
		err = write()
	}
	if err != nil {
		// Write never reports NotFound; a vanished parent is an I/O failure.
		return nil, ioFail(OpWrite, path, "failed to write file", err)
	}

	o.logger.Debug("File written", "path", resolved, "bytes", len(content))
	return &Acknowledgement{
		Operation:  OpWrite,
		Path:       path,
		Bytes:      len(content),
		Characters: utf8.RuneCountInString(content),
	}, nil
}

// Delete removes a file or a directory tree. Deleting something that does
// not exist succeeds. A symlink is removed itself, never its target, and an
// allowed root can not be deleted.
func (o *Operations) Delete(ctx context.Context, path string) (*Acknowledgement, error) {
	entry, err := o.gate.ResolveEntry(path)
	if err != nil {
		return nil, denied(OpDelete, err)
	}
	if o.gate.IsRoot(entry) {
		return nil, toolerr.New(toolerr.AccessDenied, OpDelete, path,
			"access denied - cannot delete an allowed directory root")
	}

	if err := o.store.RemoveAll(ctx, entry); err != nil {
		return nil, ioFail(OpDelete, path, "failed to delete", err)
	}

	o.logger.Debug("Deleted", "path", entry)
	return &Acknowledgement{Operation: OpDelete, Path: path}, nil
}
