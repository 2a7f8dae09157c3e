package mount

import (
	"context"
	"fmt"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
)

// gocryptfsPasswordVar is the environment variable the extpass helper reads.
// The password enters the child environment for one call only.
const gocryptfsPasswordVar = "GOCRYPTFS_PASSWORD"

// gocryptfsBackend mounts encrypted overlays. The device label is the
// encrypted source directory.
type gocryptfsBackend struct {
	runner cmdexec.Runner
}

func (b *gocryptfsBackend) mount(ctx context.Context, dev device.Device, mountPoint string, opts Options) (bool, error) {
	// Reject paths that are not gocryptfs repositories before mounting.
	if _, err := b.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"gocryptfs", "-info", dev.Label},
	}); err != nil {
		return false, fmt.Errorf("%s is not a gocryptfs repository: %w", dev.Label, err)
	}
	_, err := b.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"gocryptfs", "-extpass", "printenv " + gocryptfsPasswordVar, dev.Label, mountPoint},
		Env:  map[string]string{gocryptfsPasswordVar: opts.GocryptfsPassword},
	})
	if err != nil {
		return false, fmt.Errorf("gocryptfs mount %s: %w", dev.Label, err)
	}
	return true, nil
}

func (b *gocryptfsBackend) unmount(ctx context.Context, path string) error {
	if _, err := b.runner.Run(ctx, cmdexec.Command{Argv: []string{"umount", path}}); err != nil {
		return fmt.Errorf("unmount gocryptfs at %s: %w", path, err)
	}
	return nil
}
