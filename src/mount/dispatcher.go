package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/platform"
)

// Options carries per-call mount parameters. Credentials live here for the
// duration of one call instead of on any long-lived object.
type Options struct {
	// GocryptfsPassword unlocks an encrypted overlay when mounting one.
	GocryptfsPassword string
}

// backend is the per-kind mount/unmount strategy. mount reports whether it
// consumed the prepared directory as its mount point.
type backend interface {
	mount(ctx context.Context, dev device.Device, mountPoint string, opts Options) (bool, error)
	unmount(ctx context.Context, path string) error
}

// Dispatcher resolves a device through the registry and routes mount and
// unmount calls to the backend matching its filesystem kind.
type Dispatcher struct {
	Registry *device.Registry
	Platform platform.Platform
	Runner   cmdexec.Runner
}

func NewDispatcher(reg *device.Registry, p platform.Platform, runner cmdexec.Runner) *Dispatcher {
	return &Dispatcher{Registry: reg, Platform: p, Runner: runner}
}

// Mount ensures the device matching the filter is mounted. It returns true
// when it performed a new mount and false when the device was already
// mounted (an idempotent no-op). Zero or multiple matches are errors; no
// temporary directory is created before the match is unambiguous.
func (d *Dispatcher) Mount(ctx context.Context, f device.Filter, opts Options) (bool, error) {
	dev, err := d.Registry.FindOne(ctx, f)
	if err != nil {
		return false, err
	}
	if dev.Mounted() {
		log.Info().
			Str("label", dev.Label).
			Strs("mountpoints", dev.Mountpoints).
			Msg("device already mounted, reusing existing mount")
		return false, nil
	}

	dir, err := NewSessionDir()
	if err != nil {
		return false, err
	}
	consumed, err := d.backendFor(dev.Fstype).mount(ctx, dev, dir, opts)
	if err != nil {
		_ = os.Remove(dir)
		return false, err
	}
	if !consumed {
		// The mount utility picked its own location; the prepared
		// directory was never used.
		_ = os.Remove(dir)
	}
	log.Info().Str("label", dev.Label).Str("fstype", dev.Fstype).Msg("mounted device")
	return true, nil
}

// Unmount releases the mount for the device matching the filter. A device
// without mountpoints is already unmounted and this is a no-op.
func (d *Dispatcher) Unmount(ctx context.Context, f device.Filter) error {
	dev, err := d.Registry.FindOne(ctx, f)
	if err != nil {
		return err
	}
	if !dev.Mounted() {
		log.Debug().Str("label", dev.Label).Msg("device already unmounted")
		return nil
	}
	return d.unmountPath(ctx, dev.Mountpoints[0], d.backendFor(dev.Fstype))
}

// UnmountPath releases whatever is mounted at path. The backend is chosen by
// resolving the device occupying the path; when the lookup fails (mount
// table race after a crash) it falls back to a plain umount so the session
// can still be unwound.
func (d *Dispatcher) UnmountPath(ctx context.Context, path string) error {
	dev, err := d.Registry.FindOne(ctx, device.Filter{Path: path})
	switch {
	case err == nil:
		return d.unmountPath(ctx, path, d.backendFor(dev.Fstype))
	case errors.Is(err, device.ErrNotFound):
		log.Warn().Str("path", path).Msg("no device resolved for mount path, unmounting by path only")
		return d.unmountPath(ctx, path, &genericBackend{runner: d.Runner})
	default:
		return err
	}
}

func (d *Dispatcher) unmountPath(ctx context.Context, path string, b backend) error {
	if err := b.unmount(ctx, path); err != nil {
		if isDeviceBusy(err) {
			log.Warn().Str("path", path).Err(err).
				Msg("device is busy and cannot be unmounted; close applications using it and retry")
			return nil
		}
		return err
	}
	return RemoveSessionDir(path)
}

func (d *Dispatcher) backendFor(fstype string) backend {
	switch fstype {
	case device.FstypeRclone:
		return &rcloneBackend{runner: d.Runner}
	case device.FstypeGocryptfs:
		return &gocryptfsBackend{runner: d.Runner}
	default:
		return &physicalBackend{platform: d.Platform}
	}
}

// isDeviceBusy matches the unmount utility's target-busy report. udisksctl
// exposes no distinct exit code for this condition, so the stderr text is
// the only available signal.
func isDeviceBusy(err error) bool {
	var cmdErr *cmdexec.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(strings.ToLower(cmdErr.Stderr), "busy")
}

// physicalBackend mounts block devices through the platform primitives.
type physicalBackend struct {
	platform platform.Platform
}

func (b *physicalBackend) mount(ctx context.Context, dev device.Device, mountPoint string, _ Options) (bool, error) {
	return b.platform.MountDevice(ctx, dev.Name, mountPoint)
}

func (b *physicalBackend) unmount(ctx context.Context, path string) error {
	return b.platform.UnmountPath(ctx, path)
}

// genericBackend unmounts by path alone, for sessions whose device can no
// longer be resolved.
type genericBackend struct {
	runner cmdexec.Runner
}

func (b *genericBackend) mount(context.Context, device.Device, string, Options) (bool, error) {
	return false, errors.New("generic backend cannot mount")
}

func (b *genericBackend) unmount(ctx context.Context, path string) error {
	if _, err := b.runner.Run(ctx, cmdexec.Command{Argv: []string{"umount", path}}); err != nil {
		return fmt.Errorf("unmount %s: %w", path, err)
	}
	return nil
}
