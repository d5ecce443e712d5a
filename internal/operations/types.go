package operations

import (
	"os"
	"time"
)

// FileContent is the outcome of a read.
type FileContent struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Size     uint64 `json:"size"`
	MIMEType string `json:"mimeType"`
}

// DirectoryEntry is one child in a listing. The directory itself and its
// parent are never listed.
type DirectoryEntry struct {
	Name        string    `json:"name"`
	IsDirectory bool      `json:"isDirectory"`
	Size        uint64    `json:"size"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// Listing is the outcome of a list, entries sorted by name.
type Listing struct {
	Path    string           `json:"path"`
	Entries []DirectoryEntry `json:"entries"`
}

// FileMetadata is the outcome of a stat.
type FileMetadata struct {
	Path        string      `json:"path"`
	IsDirectory bool        `json:"isDirectory"`
	Size        uint64      `json:"size"`
	CreatedAt   time.Time   `json:"createdAt"`
	ModifiedAt  time.Time   `json:"modifiedAt"`
	AccessedAt  time.Time   `json:"accessedAt"`
	Mode        os.FileMode `json:"mode"`
	MIMEType    string      `json:"mimeType"`
}

// UnixMode returns Mode in the st_mode encoding of stat(2): file type bits,
// setuid/setgid/sticky and permissions, e.g. 0o100644 for a regular file.
func (m *FileMetadata) UnixMode() uint32 {
	mode := uint32(m.Mode.Perm())
	switch {
	case m.Mode.IsDir():
		mode |= 0o040000
	case m.Mode&os.ModeSymlink != 0:
		mode |= 0o120000
	case m.Mode&os.ModeNamedPipe != 0:
		mode |= 0o010000
	case m.Mode&os.ModeSocket != 0:
		mode |= 0o140000
	case m.Mode&os.ModeCharDevice != 0:
		mode |= 0o020000
	case m.Mode&os.ModeDevice != 0:
		mode |= 0o060000
	default:
		mode |= 0o100000
	}
	if m.Mode&os.ModeSetuid != 0 {
		mode |= 0o4000
	}
	if m.Mode&os.ModeSetgid != 0 {
		mode |= 0o2000
	}
	if m.Mode&os.ModeSticky != 0 {
		mode |= 0o1000
	}
	return mode
}

// Acknowledgement confirms a write, mkdir or delete.
type Acknowledgement struct {
	Operation string `json:"operation"`
	Path      string `json:"path"`
	// Bytes and Characters are only set for writes.
	Bytes      int `json:"bytes,omitempty"`
	Characters int `json:"characters,omitempty"`
}
