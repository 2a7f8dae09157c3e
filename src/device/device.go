// Package device defines the uniform storage-endpoint model shared by all
// backend finders, and the registry that merges and filters their output.
package device

import "context"

// Overlay and remote filesystem tags as they appear in the mount table.
const (
	FstypeRclone    = "fuse.rclone"
	FstypeGocryptfs = "fuse.gocryptfs"
)

// Device is one discoverable storage endpoint. Devices are regenerated on
// every discovery call; Mountpoints reflect live system state at enumeration
// time and must not be cached across calls.
type Device struct {
	// Name is the backend-assigned identifier: a block-device name like
	// "sda1", or a protocol tag like "rclone".
	Name string
	// Label is the primary match key: a volume label, an rclone remote name,
	// or a gocryptfs source path.
	Label string
	// Fstype is the normalized filesystem or backend tag.
	Fstype string
	// Mountpoints lists absolute paths where the device is mounted; empty
	// when unmounted.
	Mountpoints []string
}

// Mounted reports whether the device currently has at least one mountpoint.
func (d Device) Mounted() bool { return len(d.Mountpoints) > 0 }

// Finder enumerates devices from one backend. Implementations must fail with
// an unsupported-platform error when their probe cannot run on the current
// OS; an empty list is indistinguishable from "drive not present".
type Finder interface {
	List(ctx context.Context) ([]Device, error)
}
