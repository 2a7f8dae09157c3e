//go:build windows

package mount

// IsMountPoint always reports false on Windows; mount management is not
// implemented there and the reconciler never runs.
func IsMountPoint(string) bool { return false }
