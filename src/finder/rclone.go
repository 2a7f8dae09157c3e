package finder

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/platform"
)

// ProcessLister returns the command lines of all running processes. Narrow
// on purpose so tests can script the process table.
type ProcessLister interface {
	CommandLines(ctx context.Context) ([][]string, error)
}

// SystemProcesses lists command lines via gopsutil.
type SystemProcesses struct{}

func (SystemProcesses) CommandLines(ctx context.Context) ([][]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	lines := make([][]string, 0, len(procs))
	for _, p := range procs {
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || len(args) == 0 {
			// Processes we cannot inspect (exited, permission) are not ours.
			continue
		}
		lines = append(lines, args)
	}
	return lines, nil
}

// Rclone discovers configured rclone remotes and, for each, whether a mount
// daemon is currently serving it. A remote without a running daemon is
// reported with no mountpoints.
type Rclone struct {
	Runner    cmdexec.Runner
	Processes ProcessLister
	// OS is the resolved platform name; daemon detection is Unix-only.
	OS string
}

func NewRclone(runner cmdexec.Runner, p platform.Platform) *Rclone {
	return &Rclone{Runner: runner, Processes: SystemProcesses{}, OS: p.Name()}
}

func (f *Rclone) List(ctx context.Context) ([]device.Device, error) {
	out, err := f.Runner.Run(ctx, cmdexec.Command{Argv: []string{"rclone", "listremotes"}})
	if err != nil {
		return nil, fmt.Errorf("list rclone remotes: %w", err)
	}
	var remotes []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			remotes = append(remotes, line)
		}
	}
	if len(remotes) == 0 {
		return nil, nil
	}

	if f.OS != "linux" && f.OS != "darwin" {
		return nil, fmt.Errorf("rclone mount detection on %s: %w", f.OS, platform.ErrUnsupported)
	}
	mounted, err := f.mountedRemotes(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]device.Device, 0, len(remotes))
	for _, remote := range remotes {
		d := device.Device{
			Name:   "rclone",
			Label:  remote,
			Fstype: device.FstypeRclone,
		}
		if path, ok := mounted[remote]; ok {
			d.Mountpoints = []string{path}
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// mountedRemotes maps remote names to mount paths by scanning the process
// table for `rclone mount <remote> <path>` daemons. The remote and path are
// positional, immediately after the mount verb.
func (f *Rclone) mountedRemotes(ctx context.Context) (map[string]string, error) {
	lines, err := f.Processes.CommandLines(ctx)
	if err != nil {
		return nil, err
	}
	mounted := map[string]string{}
	for _, argv := range lines {
		if !strings.Contains(argv[0], "rclone") {
			continue
		}
		for i, arg := range argv {
			if arg != "mount" {
				continue
			}
			if i+2 < len(argv) {
				mounted[argv[i+1]] = argv[i+2]
			}
			break
		}
	}
	return mounted, nil
}
