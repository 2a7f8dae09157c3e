package platform

import (
	"context"
	"fmt"
	"strings"

	"howett.net/plist"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/mounttab"
)

// fstypeByContent normalizes diskutil content identifiers into the stable
// vocabulary shared with the Linux finder. Unknown identifiers pass through
// unchanged.
var fstypeByContent = map[string]string{
	"Apple_APFS_ISC":       "apfs_isc",
	"Apple_APFS_Recovery":  "apfs_recovery",
	"Apple_APFS_Container": "apfs_container",
	"Apple_APFS":           "apfs",
	"Windows_NTFS":         "ntfs",
}

// privateMountPrefix is the shadow location where macOS may report a mount
// that is user-visible without the prefix.
const privateMountPrefix = "/private"

type diskutilPartition struct {
	DeviceIdentifier string `plist:"DeviceIdentifier"`
	VolumeName       string `plist:"VolumeName"`
	Content          string `plist:"Content"`
	MountPoint       string `plist:"MountPoint"`
}

type diskutilDisk struct {
	diskutilPartition
	Partitions []diskutilPartition `plist:"Partitions"`
}

type diskutilList struct {
	AllDisksAndPartitions []diskutilDisk `plist:"AllDisksAndPartitions"`
}

type darwinPlatform struct {
	runner cmdexec.Runner
}

func (p *darwinPlatform) Name() string { return "darwin" }

func (p *darwinPlatform) ListPhysical(ctx context.Context) ([]device.Device, error) {
	out, err := p.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"diskutil", "list", "-plist"},
	})
	if err != nil {
		return nil, fmt.Errorf("list disks: %w", err)
	}
	var parsed diskutilList
	if _, err := plist.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("parse diskutil plist: %w", err)
	}

	var devices []device.Device
	for _, disk := range parsed.AllDisksAndPartitions {
		devices = append(devices, partitionDevice(disk.diskutilPartition))
		for _, part := range disk.Partitions {
			devices = append(devices, partitionDevice(part))
		}
	}
	return devices, nil
}

func partitionDevice(p diskutilPartition) device.Device {
	return device.Device{
		Name:        p.DeviceIdentifier,
		Label:       p.VolumeName,
		Fstype:      normalizeFstype(p.Content),
		Mountpoints: normalizeMountPoint(p.MountPoint),
	}
}

func normalizeFstype(content string) string {
	if mapped, ok := fstypeByContent[content]; ok {
		return mapped
	}
	return content
}

func normalizeMountPoint(path string) []string {
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, privateMountPrefix) {
		path = strings.TrimPrefix(path, privateMountPrefix)
	}
	return []string{path}
}

func (p *darwinPlatform) MountDevice(ctx context.Context, name, mountPoint string) (bool, error) {
	_, err := p.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"diskutil", "mount", "-mountPoint", mountPoint, "/dev/" + name},
	})
	if err != nil {
		return false, fmt.Errorf("mount /dev/%s: %w", name, err)
	}
	return true, nil
}

func (p *darwinPlatform) UnmountPath(ctx context.Context, path string) error {
	if _, err := p.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"diskutil", "unmount", path},
	}); err != nil {
		return fmt.Errorf("unmount %s: %w", path, err)
	}
	return nil
}

func (p *darwinPlatform) MountTable(ctx context.Context) ([]mounttab.Entry, error) {
	out, err := p.runner.Run(ctx, cmdexec.Command{Argv: []string{"mount"}})
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}
	return mounttab.Parse(out, mounttab.GrammarParenList), nil
}

func (p *darwinPlatform) DeviceForMountPoint(ctx context.Context, path string) (string, error) {
	entries, err := p.MountTable(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Dest == path {
			return strings.TrimPrefix(e.Source, "/dev/"), nil
		}
	}
	return "", nil
}
