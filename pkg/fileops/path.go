package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrInvalidPath is returned for path strings that cannot name a file.
var ErrInvalidPath = errors.New("invalid path")

// ValidatePathSyntax rejects path strings that cannot be interpreted as a
// filesystem path at all.
//
// The function rejects:
//   - Empty or whitespace-only paths
//   - Paths containing a NUL byte
//
// It does not touch the filesystem and does not judge containment; ".."
// segments are legal here and are resolved by Canonicalize.
//
// Usage example:
//
//	if err := fileops.ValidatePathSyntax(req.Path); err != nil {
//	    return fmt.Errorf("bad request: %w", err)
//	}
func ValidatePathSyntax(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: path contains NUL byte", ErrInvalidPath)
	}
	return nil
}

// Canonicalize returns the absolute, cleaned, symlink-resolved form of path.
//
// Parameters:
//   - path: Candidate path, absolute or relative
//   - baseDir: Directory that relative paths are resolved against; when empty
//     the process working directory is used
//
// Returns:
//   - string: Canonical absolute path
//   - error: ErrInvalidPath for unusable strings, or resolution errors other
//     than non-existence
//
// The target does not need to exist. Symlinks are resolved on the longest
// prefix that exists, and the remaining components are appended unchanged.
// This makes a write to "<root>/link/new.txt" resolve through "link" even
// though "new.txt" is not there yet.
//
// Usage example:
//
//	canonical, err := fileops.Canonicalize("notes/../todo.txt", "/projects")
//	// canonical == "/projects/todo.txt" when /projects contains no symlinks
func Canonicalize(path, baseDir string) (string, error) {
	if err := ValidatePathSyntax(path); err != nil {
		return "", err
	}

	path = ExpandPath(path)
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			abs, err := filepath.Abs(path)
			if err != nil {
				return "", fmt.Errorf("cannot resolve absolute path: %w", err)
			}
			path = abs
		} else {
			path = filepath.Join(baseDir, path)
		}
	}

	return resolveExisting(filepath.Clean(path), 0)
}

// maxLinkHops bounds dangling-link chains the same way the kernel bounds
// ELOOP.
const maxLinkHops = 40

// resolveExisting walks up from path until it finds an ancestor that exists,
// resolves symlinks there and re-appends the missing tail. A dangling symlink
// on the way is followed to its (missing) target so that the result names the
// location a create through that link would actually touch.
func resolveExisting(path string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", fmt.Errorf("failed to resolve path: too many levels of symbolic links")
	}

	var tail []string
	current := path

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return joinTail(resolved, tail), nil
		}
		// ENOTDIR: a prefix is a regular file, so the rest cannot exist.
		if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}

		if info, lerr := os.Lstat(current); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			target, rerr := os.Readlink(current)
			if rerr != nil {
				return "", fmt.Errorf("failed to read symlink: %w", rerr)
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(current), target)
			}
			return resolveExisting(joinTail(filepath.Clean(target), tail), hops+1)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}

// joinTail re-appends components collected leaf-first.
func joinTail(base string, tail []string) string {
	for i := len(tail) - 1; i >= 0; i-- {
		base = filepath.Join(base, tail[i])
	}
	return base
}

// IsWithin reports whether path equals root or lies beneath it.
//
// Both arguments must already be canonical. The comparison is made on
// separator boundaries, so "/projects-archive" is not within "/projects".
//
// Usage example:
//
//	fileops.IsWithin("/projects/a/b.txt", "/projects")   // true
//	fileops.IsWithin("/projects-archive/x", "/projects") // false
func IsWithin(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, prefix)
}

// IsWithinAny reports whether path is within at least one of roots.
func IsWithinAny(path string, roots []string) bool {
	for _, root := range roots {
		if IsWithin(path, root) {
			return true
		}
	}
	return false
}

// ExpandPath expands a path that starts with "~/" to the user's home directory.
// This is a utility function for handling user home directory shortcuts.
//
// Parameters:
//   - path: The path to expand, which may start with "~/"
//
// Returns:
//   - string: The expanded path, or the original path if it doesn't start with "~/"
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/Documents/file.txt")
//	// Returns something like "/home/user/Documents/file.txt"
func ExpandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
