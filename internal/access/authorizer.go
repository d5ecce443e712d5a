// Package access decides whether a path may be touched at all.
//
// An Authorizer holds the canonical allow-list roots. Candidate paths are
// canonicalized (made absolute, cleaned, symlinks resolved) before they are
// compared, so neither ".." segments nor links can step outside a root.
package access

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fsgate/internal/logging"
	"fsgate/internal/toolerr"
	"fsgate/pkg/fileops"
)

// Authorizer is immutable after New and safe for concurrent use.
type Authorizer struct {
	roots  []string
	logger *logging.AppLogger
}

// New canonicalizes roots and returns an Authorizer over them.
//
// A root that exists is resolved through its symlinks. A root that does not
// exist yet keeps its cleaned absolute form and a warning is logged; every
// operation under it will report NotFound until it is created.
func New(roots []string, logger *logging.AppLogger) (*Authorizer, error) {
	if len(roots) == 0 {
		return nil, errors.New("at least one allowed directory is required")
	}
	if logger == nil {
		logger = logging.GetDefault()
	}

	canonical := make([]string, 0, len(roots))
	for _, root := range roots {
		if err := fileops.ValidatePathSyntax(root); err != nil {
			return nil, fmt.Errorf("invalid allowed directory %q: %w", root, err)
		}
		abs, err := filepath.Abs(fileops.ExpandPath(root))
		if err != nil {
			return nil, fmt.Errorf("cannot resolve allowed directory %q: %w", root, err)
		}
		resolved, err := fileops.Canonicalize(abs, "")
		if err != nil {
			return nil, fmt.Errorf("cannot canonicalize allowed directory %q: %w", root, err)
		}
		if resolved != abs {
			logger.Debug("Allowed directory resolved", "configured", abs, "canonical", resolved)
		}
		if _, err := os.Stat(resolved); err != nil {
			logger.Warn("Allowed directory does not exist", "path", resolved)
		}
		canonical = append(canonical, resolved)
	}

	return &Authorizer{roots: canonical, logger: logger}, nil
}

// Roots returns a copy of the canonical roots, in configuration order.
func (a *Authorizer) Roots() []string {
	out := make([]string, len(a.roots))
	copy(out, a.roots)
	return out
}

// IsAllowed reports whether candidate lies inside some root. It never
// panics and answers false when the path cannot be canonicalized.
func (a *Authorizer) IsAllowed(candidate string) bool {
	_, err := a.Resolve(candidate)
	return err == nil
}

// Resolve canonicalizes candidate and checks containment.
//
// Relative candidates are taken relative to the first root. The returned
// path is the one handlers must use; the raw candidate must not be touched.
// Failures are *toolerr.Error with kind InvalidArgument (the string is not a
// usable path) or AccessDenied (it is, but it is outside every root).
func (a *Authorizer) Resolve(candidate string) (string, error) {
	if err := fileops.ValidatePathSyntax(candidate); err != nil {
		return "", toolerr.Wrap(toolerr.InvalidArgument, "", candidate, err)
	}

	canonical, err := fileops.Canonicalize(candidate, a.roots[0])
	if err != nil {
		// Loops and unreadable links: the path cannot be placed, so it is
		// not provably inside a root.
		a.logger.Debug("Path canonicalization failed", "path", candidate, "error", err)
		return "", toolerr.New(toolerr.AccessDenied, "", candidate,
			"access denied - path could not be resolved")
	}

	if fileops.IsWithinAny(canonical, a.roots) {
		return canonical, nil
	}

	msg := "access denied - path outside allowed directories"
	if lexical := a.lexical(candidate); fileops.IsWithinAny(lexical, a.roots) {
		msg = "access denied - symbolic link resolves outside allowed directories"
	}
	a.logger.Debug("Path denied", "path", candidate, "canonical", canonical)
	return "", toolerr.New(toolerr.AccessDenied, "", candidate, msg)
}

// ResolveEntry is Resolve without following the final path component: the
// parent directory is canonicalized and the last name is appended as is.
// It addresses a directory entry itself, so removing a symlink removes the
// link and not what it points to.
func (a *Authorizer) ResolveEntry(candidate string) (string, error) {
	if err := fileops.ValidatePathSyntax(candidate); err != nil {
		return "", toolerr.Wrap(toolerr.InvalidArgument, "", candidate, err)
	}

	lexical := a.lexical(candidate)
	parent := filepath.Dir(lexical)
	if parent == lexical {
		return a.Resolve(candidate)
	}

	canonicalParent, err := fileops.Canonicalize(parent, "")
	if err != nil {
		a.logger.Debug("Path canonicalization failed", "path", candidate, "error", err)
		return "", toolerr.New(toolerr.AccessDenied, "", candidate,
			"access denied - path could not be resolved")
	}

	entry := filepath.Join(canonicalParent, filepath.Base(lexical))
	if fileops.IsWithinAny(entry, a.roots) {
		return entry, nil
	}
	return "", toolerr.New(toolerr.AccessDenied, "", candidate,
		"access denied - path outside allowed directories")
}

// lexical is the absolute cleaned form of candidate with no link resolution.
func (a *Authorizer) lexical(candidate string) string {
	p := fileops.ExpandPath(candidate)
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.roots[0], p)
	}
	return filepath.Clean(p)
}

// IsRoot reports whether canonical is exactly one of the roots.
func (a *Authorizer) IsRoot(canonical string) bool {
	for _, root := range a.roots {
		if canonical == root {
			return true
		}
	}
	return false
}
