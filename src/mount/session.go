// Package mount dispatches mount and unmount operations to the backend
// matching a device's filesystem kind, and manages the tagged temporary
// directories that host the mounts it creates.
package mount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tag is the reserved naming prefix marking temp directories owned by this
// subsystem. Ownership is derived entirely from this tag at scan time; there
// is no on-disk registry, which keeps the design crash-safe.
const Tag = "bare.mnt."

// SessionRoot is the directory under which all tagged mount sessions live.
func SessionRoot() string { return os.TempDir() }

// NewSessionDir creates a fresh tagged directory with restrictive
// permissions, ready to serve as a mount point.
func NewSessionDir() (string, error) {
	dir, err := os.MkdirTemp("", Tag)
	if err != nil {
		return "", fmt.Errorf("create mount session dir: %w", err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		_ = os.Remove(dir)
		return "", fmt.Errorf("restrict mount session dir: %w", err)
	}
	return dir, nil
}

// IsManaged reports whether the path's final element carries the session tag.
func IsManaged(path string) bool {
	return strings.Contains(filepath.Base(path), Tag)
}

// RemoveSessionDir removes a now-empty session directory. Paths without the
// tag are never touched: a pre-existing mount point is not ours to delete.
func RemoveSessionDir(path string) error {
	if !IsManaged(path) {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove mount session dir: %w", err)
	}
	return nil
}
