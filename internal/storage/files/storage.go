package files

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// Storage keeps revision files. Refs returned by Save are opaque to callers
// and stable for the lifetime of the stored object.
type Storage interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// newRef builds a unique, date-partitioned object name that keeps the
// uploaded file's base name readable.
func newRef(name string, now time.Time) string {
	base := sanitizeName(name)
	return path.Join(now.UTC().Format("2006/01"), uuid.NewString()+"-"+base)
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r == '/' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cleanRef rejects refs that would escape the storage root.
func cleanRef(ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "/") {
		return "", false
	}
	c := path.Clean(ref)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", false
	}
	return c, true
}
