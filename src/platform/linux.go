package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/mounttab"
)

// lsblkNode mirrors one entry of `lsblk -J` output. Nodes with children are
// containers (disks, LUKS holders); only leaves are mountable partitions.
type lsblkNode struct {
	Name        string      `json:"name"`
	Label       *string     `json:"label"`
	Fstype      *string     `json:"fstype"`
	Mountpoints []*string   `json:"mountpoints"`
	Children    []lsblkNode `json:"children"`
}

type lsblkOutput struct {
	BlockDevices []lsblkNode `json:"blockdevices"`
}

type linuxPlatform struct {
	runner cmdexec.Runner
	// procMounts is overridable in tests.
	procMounts string
}

func (p *linuxPlatform) Name() string { return "linux" }

func (p *linuxPlatform) ListPhysical(ctx context.Context) ([]device.Device, error) {
	out, err := p.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"lsblk", "-o", "name,label,mountpoints,fstype", "-J"},
	})
	if err != nil {
		return nil, fmt.Errorf("list block devices: %w", err)
	}
	var parsed lsblkOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("parse lsblk json: %w", err)
	}

	var devices []device.Device
	for _, leaf := range leafPartitions(parsed.BlockDevices) {
		devices = append(devices, device.Device{
			Name:        leaf.Name,
			Label:       strOrEmpty(leaf.Label),
			Fstype:      strOrEmpty(leaf.Fstype),
			Mountpoints: compactMountpoints(leaf.Mountpoints),
		})
	}
	return devices, nil
}

// leafPartitions walks the block-device tree iteratively; device trees can
// nest arbitrarily deep (partition -> crypt holder -> lvm volume).
func leafPartitions(roots []lsblkNode) []lsblkNode {
	var leaves []lsblkNode
	stack := make([]lsblkNode, len(roots))
	copy(stack, roots)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(node.Children) == 0 {
			leaves = append(leaves, node)
			continue
		}
		stack = append(stack, node.Children...)
	}
	return leaves
}

func (p *linuxPlatform) MountDevice(ctx context.Context, name, _ string) (bool, error) {
	// udisksctl picks the mount location itself; the prepared directory is
	// not consumed.
	_, err := p.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"udisksctl", "mount", "-b", "/dev/" + name},
	})
	if err != nil {
		return false, fmt.Errorf("mount /dev/%s: %w", name, err)
	}
	return false, nil
}

func (p *linuxPlatform) UnmountPath(ctx context.Context, path string) error {
	if _, err := p.runner.Run(ctx, cmdexec.Command{
		Argv: []string{"udisksctl", "unmount", "-p", path},
	}); err != nil {
		return fmt.Errorf("unmount %s: %w", path, err)
	}
	return nil
}

func (p *linuxPlatform) MountTable(ctx context.Context) ([]mounttab.Entry, error) {
	out, err := p.runner.Run(ctx, cmdexec.Command{Argv: []string{"mount"}})
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}
	return mounttab.Parse(out, mounttab.GrammarTypeKeyword), nil
}

func (p *linuxPlatform) DeviceForMountPoint(_ context.Context, path string) (string, error) {
	procMounts := p.procMounts
	if procMounts == "" {
		procMounts = "/proc/mounts"
	}
	data, err := os.ReadFile(procMounts)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", procMounts, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != path {
			continue
		}
		return strings.TrimPrefix(fields[0], "/dev/"), nil
	}
	return "", nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func compactMountpoints(mps []*string) []string {
	var out []string
	for _, mp := range mps {
		if mp != nil && *mp != "" {
			out = append(out, *mp)
		}
	}
	return out
}
