package mount

import (
	"context"
	"fmt"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
)

// rcloneBackend mounts remotes through the rclone mount daemon.
type rcloneBackend struct {
	runner cmdexec.Runner
}

func (b *rcloneBackend) mount(ctx context.Context, dev device.Device, mountPoint string, _ Options) (bool, error) {
	_, err := b.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"rclone", "mount", dev.Label, mountPoint, "--daemon"},
	})
	if err != nil {
		return false, fmt.Errorf("rclone mount %s: %w", dev.Label, err)
	}
	return true, nil
}

func (b *rcloneBackend) unmount(ctx context.Context, path string) error {
	if _, err := b.runner.Run(ctx, cmdexec.Command{Argv: []string{"umount", path}}); err != nil {
		return fmt.Errorf("unmount rclone at %s: %w", path, err)
	}
	return nil
}
