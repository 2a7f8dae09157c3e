// Package finder implements the backend device finders feeding the registry:
// physical block devices, rclone mount daemons, and gocryptfs overlays.
package finder

import (
	"context"

	"bare-backup/src/device"
	"bare-backup/src/platform"
)

// Physical lists leaf partitions of the block devices visible to the
// resolved platform backend.
type Physical struct {
	Platform platform.Platform
}

func (f *Physical) List(ctx context.Context) ([]device.Device, error) {
	return f.Platform.ListPhysical(ctx)
}
