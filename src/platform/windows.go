package platform

import (
	"context"
	"fmt"

	"bare-backup/src/device"
	"bare-backup/src/mounttab"
)

// windowsPlatform exists so the CLI can start on Windows and report clean
// errors; physical-drive discovery and mounting are not implemented there.
type windowsPlatform struct{}

func (p *windowsPlatform) Name() string { return "windows" }

func (p *windowsPlatform) ListPhysical(context.Context) ([]device.Device, error) {
	return nil, fmt.Errorf("physical drive discovery on windows: %w", ErrUnsupported)
}

func (p *windowsPlatform) MountDevice(_ context.Context, name, _ string) (bool, error) {
	return false, fmt.Errorf("mount %s on windows: %w", name, ErrUnsupported)
}

func (p *windowsPlatform) UnmountPath(_ context.Context, path string) error {
	return fmt.Errorf("unmount %s on windows: %w", path, ErrUnsupported)
}

func (p *windowsPlatform) MountTable(context.Context) ([]mounttab.Entry, error) {
	return nil, fmt.Errorf("mount table on windows: %w", ErrUnsupported)
}

func (p *windowsPlatform) DeviceForMountPoint(_ context.Context, path string) (string, error) {
	return "", fmt.Errorf("mount lookup for %s on windows: %w", path, ErrUnsupported)
}
