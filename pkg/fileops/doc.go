// Package fileops provides path confinement and safe write primitives for
// code that exposes a local filesystem to untrusted callers.
//
// # Confinement
//
// A path is confined by canonicalizing it first and only then comparing it
// against a set of allowed roots:
//
//	canonical, err := fileops.Canonicalize(candidate, baseDir)
//	if err != nil {
//	    return err
//	}
//	if !fileops.IsWithinAny(canonical, roots) {
//	    return errors.New("outside allowed roots")
//	}
//
// Canonicalize resolves symbolic links on the longest existing prefix of the
// path, so a link that lives inside a root but points outside of it is
// reported at its real location. IsWithin compares on path-separator
// boundaries: "/projects-archive" is never inside "/projects".
//
// # Writes
//
// WriteFile is a create-or-truncate write in place; it leaves no temporary
// files in the destination directory. EnsureDirectoryExists is mkdir -p with
// 0755 permissions.
package fileops
