package mount

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewSessionDir_TaggedAndRestricted(t *testing.T) {
	dir, err := NewSessionDir()
	if err != nil {
		t.Fatalf("NewSessionDir error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(dir) })

	if !strings.Contains(filepath.Base(dir), Tag) {
		t.Fatalf("dir %q does not carry the session tag", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Fatalf("permissions = %o, want 700", perm)
	}
	if !IsManaged(dir) {
		t.Fatalf("IsManaged(%q) = false", dir)
	}
}

func TestRemoveSessionDir_NeverTouchesUnmanagedDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "precious-data")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := RemoveSessionDir(dir); err != nil {
		t.Fatalf("RemoveSessionDir error: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("unmanaged directory was removed: %v", err)
	}
}

func TestRemoveSessionDir_RemovesTaggedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), Tag+"xyz")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := RemoveSessionDir(dir); err != nil {
		t.Fatalf("RemoveSessionDir error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("tagged directory still present")
	}
}

func TestRemoveSessionDir_MissingTaggedDirIsNoError(t *testing.T) {
	if err := RemoveSessionDir(filepath.Join(t.TempDir(), Tag+"gone")); err != nil {
		t.Fatalf("RemoveSessionDir error: %v", err)
	}
}
