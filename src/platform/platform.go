// Package platform collapses OS-specific probing and mount primitives behind
// one interface. The backend is resolved once at startup from the runtime OS
// and injected into everything that needs it; no other package branches on
// the OS name.
package platform

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/mounttab"
)

// ErrUnsupported marks an operation with no implementation for the current
// OS. Probes must return it rather than an empty result; silence would be
// indistinguishable from "drive not present".
var ErrUnsupported = errors.New("not supported on this platform")

// Platform exposes the OS-specific capability set: physical-device
// discovery, mount/unmount primitives, and mount-table lookups.
type Platform interface {
	// Name returns the GOOS-style platform name.
	Name() string
	// ListPhysical enumerates leaf partitions of all block devices.
	ListPhysical(ctx context.Context) ([]device.Device, error)
	// MountDevice mounts /dev/<name>. Implementations that bind to an
	// explicit directory consume mountPoint and return true; implementations
	// whose mount utility picks its own location ignore it and return false
	// so the caller can discard the unused directory.
	MountDevice(ctx context.Context, name, mountPoint string) (bool, error)
	// UnmountPath unmounts whatever is mounted at path.
	UnmountPath(ctx context.Context, path string) error
	// MountTable returns the parsed live mount table.
	MountTable(ctx context.Context) ([]mounttab.Entry, error)
	// DeviceForMountPoint resolves the device identifier mounted at path,
	// or "" when the path is not in the mount table.
	DeviceForMountPoint(ctx context.Context, path string) (string, error)
}

// New returns the backend for the given GOOS value.
func New(goos string, runner cmdexec.Runner) (Platform, error) {
	switch goos {
	case "linux":
		return &linuxPlatform{runner: runner}, nil
	case "darwin":
		return &darwinPlatform{runner: runner}, nil
	case "windows":
		return &windowsPlatform{}, nil
	default:
		return nil, fmt.Errorf("platform %q: %w", goos, ErrUnsupported)
	}
}

// Current resolves the backend for the running OS.
func Current(runner cmdexec.Runner) (Platform, error) {
	return New(runtime.GOOS, runner)
}
