package dispatch

import (
	"fmt"
	"strings"
	"time"

	"fsgate/internal/operations"
)

func renderRead(out *operations.FileContent) string {
	return fmt.Sprintf("File: %s\nMIME Type: %s\nSize: %d bytes\n\n%s", out.Path, out.MIMEType, out.Size, out.Content)
}

func renderWrite(out *operations.Acknowledgement) string {
	return fmt.Sprintf("Successfully wrote %d characters to %s", out.Characters, out.Path)
}

func renderList(out *operations.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Directory listing for %s:\n\n", out.Path)
	for i, e := range out.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.IsDirectory {
			fmt.Fprintf(&b, "📁 %s (dir) - Modified: %s", e.Name, timestamp(e.ModifiedAt))
		} else {
			fmt.Fprintf(&b, "📄 %s (%d bytes) - Modified: %s", e.Name, e.Size, timestamp(e.ModifiedAt))
		}
	}
	return b.String()
}

func renderMkdir(out *operations.Acknowledgement) string {
	return "Successfully created directory: " + out.Path
}

func renderDelete(out *operations.Acknowledgement) string {
	return "Successfully deleted: " + out.Path
}

func renderStat(out *operations.FileMetadata) string {
	kind := "File"
	if out.IsDirectory {
		kind = "Directory"
	}
	return fmt.Sprintf(`File Information for %s:
Type: %s
Size: %d bytes
MIME Type: %s
Created: %s
Modified: %s
Accessed: %s
Permissions: %o`,
		out.Path, kind, out.Size, out.MIMEType,
		timestamp(out.CreatedAt), timestamp(out.ModifiedAt), timestamp(out.AccessedAt),
		out.UnixMode())
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
