package fileops

import (
	"fmt"
	"os"
)

// WriteFile creates destPath, or truncates it when it exists, and writes
// data in place.
//
// No temporary file is created next to the destination, so a concurrent
// directory listing only ever sees the target itself. Callers that need
// writers to the same path not to interleave must serialize them.
//
// Parameters:
//   - destPath: Absolute path to the destination file; its directory must exist
//   - data: Content to write
//   - perm: Permissions for a newly created file; an existing file keeps its mode
//
// Security considerations:
//   - The path should be validated before calling this function
//   - A symlink at destPath is followed, so it must already have been resolved
//     and checked
//
// Usage example:
//
//	if err := fileops.WriteFile("/projects/notes.txt", []byte("hi"), 0644); err != nil {
//	    return fmt.Errorf("write failed: %w", err)
//	}
func WriteFile(destPath string, data []byte, perm os.FileMode) error {
	if info, err := os.Stat(destPath); err == nil && info.IsDir() {
		return fmt.Errorf("cannot write file: %s is a directory", destPath)
	}

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file contents: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// EnsureDirectoryExists creates a directory and all necessary parent directories.
// This is equivalent to `mkdir -p` and is safe to call multiple times.
//
// The function sets directory permissions to 0755 (readable and executable by all,
// writable by owner only).
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
