package finder

import (
	"context"
	"errors"
	"testing"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/platform"
)

type fakeProcesses [][]string

func (f fakeProcesses) CommandLines(context.Context) ([][]string, error) { return f, nil }

func TestRclone_RemoteWithRunningDaemon(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"rclone", "listremotes"}, cmdexec.FakeResult{Stdout: "gdrive:\nnas:\n"})
	f := &Rclone{
		Runner: fake,
		OS:     "linux",
		Processes: fakeProcesses{
			{"/usr/bin/rclone", "mount", "gdrive:", "/tmp/bare.mnt.abc", "--daemon"},
			{"/usr/lib/firefox/firefox"},
		},
	}

	devices, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(devices))
	}
	byLabel := map[string]device.Device{}
	for _, d := range devices {
		byLabel[d.Label] = d
	}
	gdrive := byLabel["gdrive:"]
	if gdrive.Fstype != device.FstypeRclone || gdrive.Name != "rclone" {
		t.Fatalf("gdrive = %+v", gdrive)
	}
	if len(gdrive.Mountpoints) != 1 || gdrive.Mountpoints[0] != "/tmp/bare.mnt.abc" {
		t.Fatalf("gdrive mountpoints = %v", gdrive.Mountpoints)
	}
	if nas := byLabel["nas:"]; len(nas.Mountpoints) != 0 {
		t.Fatalf("nas should have no mountpoints, got %v", nas.Mountpoints)
	}
}

func TestRclone_NoRemotesConfigured(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"rclone", "listremotes"}, cmdexec.FakeResult{Stdout: "\n"})
	f := &Rclone{Runner: fake, OS: "linux", Processes: fakeProcesses{}}

	devices, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("devices = %v, want none", devices)
	}
}

func TestRclone_DaemonDetectionUnsupportedOnWindows(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"rclone", "listremotes"}, cmdexec.FakeResult{Stdout: "gdrive:\n"})
	f := &Rclone{Runner: fake, OS: "windows", Processes: fakeProcesses{}}

	if _, err := f.List(context.Background()); !errors.Is(err, platform.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestRclone_TruncatedMountCommandIgnored(t *testing.T) {
	fake := cmdexec.NewFake()
	fake.Script([]string{"rclone", "listremotes"}, cmdexec.FakeResult{Stdout: "gdrive:\n"})
	f := &Rclone{
		Runner:    fake,
		OS:        "linux",
		Processes: fakeProcesses{{"rclone", "mount", "gdrive:"}},
	}

	devices, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(devices) != 1 || len(devices[0].Mountpoints) != 0 {
		t.Fatalf("devices = %+v, want gdrive with no mountpoints", devices)
	}
}
