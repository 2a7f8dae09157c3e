package finder

import (
	"context"

	"bare-backup/src/device"
	"bare-backup/src/platform"
)

// Gocryptfs finds active encrypted-overlay mounts by filtering the live
// mount table to the gocryptfs filesystem tag. The label is the encrypted
// source path, which is how destinations reference an overlay.
type Gocryptfs struct {
	Platform platform.Platform
}

func (f *Gocryptfs) List(ctx context.Context) ([]device.Device, error) {
	entries, err := f.Platform.MountTable(ctx)
	if err != nil {
		return nil, err
	}
	var devices []device.Device
	for _, e := range entries {
		if e.Fstype != device.FstypeGocryptfs {
			continue
		}
		devices = append(devices, device.Device{
			Name:        "gocryptfs",
			Label:       e.Source,
			Fstype:      e.Fstype,
			Mountpoints: []string{e.Dest},
		})
	}
	return devices, nil
}
