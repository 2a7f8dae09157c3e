package platform

import (
	"context"
	"testing"

	"bare-backup/src/cmdexec"
)

const diskutilFixture = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>AllDisksAndPartitions</key>
  <array>
    <dict>
      <key>DeviceIdentifier</key><string>disk2</string>
      <key>Content</key><string>GUID_partition_scheme</string>
      <key>Partitions</key>
      <array>
        <dict>
          <key>DeviceIdentifier</key><string>disk2s1</string>
          <key>VolumeName</key><string>BACKUP1</string>
          <key>Content</key><string>Apple_APFS</string>
          <key>MountPoint</key><string>/private/tmp/bare.mnt.x</string>
        </dict>
        <dict>
          <key>DeviceIdentifier</key><string>disk2s2</string>
          <key>VolumeName</key><string>WINDATA</string>
          <key>Content</key><string>Windows_NTFS</string>
        </dict>
      </array>
    </dict>
  </array>
</dict>
</plist>`

func TestDarwinListPhysical_NormalizesFstypeAndPrefix(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"diskutil", "list", "-plist"}, cmdexec.FakeResult{Stdout: diskutilFixture})
	p := &darwinPlatform{runner: fake}

	devices, err := p.ListPhysical(context.Background())
	if err != nil {
		t.Fatalf("ListPhysical error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("devices = %d, want 3 (whole disk + two partitions)", len(devices))
	}

	byName := map[string]int{}
	for i, d := range devices {
		byName[d.Name] = i
	}

	apfs := devices[byName["disk2s1"]]
	if apfs.Fstype != "apfs" {
		t.Fatalf("fstype = %q, want apfs", apfs.Fstype)
	}
	if len(apfs.Mountpoints) != 1 || apfs.Mountpoints[0] != "/tmp/bare.mnt.x" {
		t.Fatalf("mountpoints = %v, want /private prefix stripped", apfs.Mountpoints)
	}

	ntfs := devices[byName["disk2s2"]]
	if ntfs.Fstype != "ntfs" {
		t.Fatalf("fstype = %q, want ntfs", ntfs.Fstype)
	}
	if len(ntfs.Mountpoints) != 0 {
		t.Fatalf("mountpoints = %v, want empty for unmounted partition", ntfs.Mountpoints)
	}

	// Unknown content identifiers pass through unchanged.
	disk := devices[byName["disk2"]]
	if disk.Fstype != "GUID_partition_scheme" {
		t.Fatalf("fstype = %q, want passthrough", disk.Fstype)
	}
}

func TestDarwinMountDevice_ConsumesMountPoint(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"diskutil", "mount", "-mountPoint", "/tmp/bare.mnt.y", "/dev/disk2s1"},
		cmdexec.FakeResult{Stdout: "Volume BACKUP1 on /dev/disk2s1 mounted\n"})
	p := &darwinPlatform{runner: fake}

	used, err := p.MountDevice(context.Background(), "disk2s1", "/tmp/bare.mnt.y")
	if err != nil {
		t.Fatalf("MountDevice error: %v", err)
	}
	if !used {
		t.Fatalf("diskutil binds the given mount point; expected consumed=true")
	}
}

func TestDarwinDeviceForMountPoint(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"mount"}, cmdexec.FakeResult{
		Stdout: "/dev/disk2s1 on /Volumes/BACKUP1 (apfs, local, nodev)\n",
	})
	p := &darwinPlatform{runner: fake}

	dev, err := p.DeviceForMountPoint(context.Background(), "/Volumes/BACKUP1")
	if err != nil {
		t.Fatalf("DeviceForMountPoint error: %v", err)
	}
	if dev != "disk2s1" {
		t.Fatalf("device = %q, want disk2s1", dev)
	}
}
