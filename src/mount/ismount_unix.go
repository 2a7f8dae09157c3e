//go:build unix

package mount

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsMountPoint reports whether path is the root of an active mount, by
// comparing its device ID against its parent's. The filesystem root case
// (same inode as parent) also counts.
func IsMountPoint(path string) bool {
	var st, parent unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return false
	}
	if err := unix.Lstat(filepath.Dir(path), &parent); err != nil {
		return false
	}
	return st.Dev != parent.Dev || st.Ino == parent.Ino
}
