package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"bare-backup/src/cmdexec"
	"bare-backup/src/config"
)

// baseRsyncArgs preserve hard links, ACLs and extended attributes and keep
// the mirror an exact copy of the sources.
var baseRsyncArgs = []string{
	"-axHAX",
	"--info=progress2",
	"--numeric-ids",
	"--delete",
	"--ignore-errors",
}

// Rsync mirrors the sources into a per-host folder under the destination.
type Rsync struct {
	Runner cmdexec.Runner
	Dest   string
	Mask   *cmdexec.PathMask
	Args   []string
}

// NewRsync builds an rsync engine writing to <destPath>/<hostname>/<folder>.
func NewRsync(runner cmdexec.Runner, target config.Target, destPath string) *Rsync {
	var mask *cmdexec.PathMask
	if target.Mask != nil {
		mask = &cmdexec.PathMask{Real: target.Mask.Real, Masked: target.Mask.Masked}
	}
	return &Rsync{
		Runner: runner,
		Dest:   filepath.Join(destPath, target.Hostname, target.Rsync.Folder),
		Mask:   mask,
		Args:   target.Rsync.Args,
	}
}

// Sync mirrors the sources into the destination folder. With dryRun set,
// rsync reports what would change without writing anything.
func (r *Rsync) Sync(ctx context.Context, sources []string, dryRun bool) error {
	argv := append([]string{"rsync"}, baseRsyncArgs...)
	argv = append(argv, r.Args...)
	if dryRun {
		argv = append(argv, "--dry-run")
	}
	argv = append(argv, sources...)
	argv = append(argv, r.Dest)
	if _, err := r.Runner.Run(ctx, cmdexec.Command{Argv: argv, Mask: r.Mask}); err != nil {
		return fmt.Errorf("rsync to %s: %w", r.Dest, err)
	}
	return nil
}
