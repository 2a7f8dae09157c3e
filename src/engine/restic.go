// Package engine runs the backup tools against a resolved destination path.
// Engines hold no credentials beyond the single run they are built for and
// issue every subprocess through cmdexec so path masks and fakes apply.
package engine

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bare-backup/src/cmdexec"
	"bare-backup/src/config"
	"bare-backup/src/destination"
)

const resticPasswordVar = "RESTIC_PASSWORD"

// DetectRestic locates the restic binary and probes that it runs, so a
// missing installation fails before any volume is mounted. The probe is
// time-bounded; a wedged binary must not hang the whole run.
func DetectRestic(ctx context.Context, runner cmdexec.Runner) (string, error) {
	path, err := exec.LookPath("restic")
	if err != nil {
		return "", fmt.Errorf("restic binary not found on PATH: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := runner.Run(ctx, cmdexec.Command{Argv: []string{path, "version"}}); err != nil {
		return "", fmt.Errorf("restic version probe: %w", err)
	}
	return path, nil
}

// Restic wraps the restic CLI for one repository.
type Restic struct {
	Runner   cmdexec.Runner
	Repo     string
	Password string
	Mask     *cmdexec.PathMask
	Args     []string
}

// NewRestic builds a restic engine for the target, deriving the repository
// location from the resolved destination. A rest-server destination is used
// as the repository verbatim; filesystem destinations get the configured
// repository folder appended.
func NewRestic(runner cmdexec.Runner, target config.Target, destType destination.Type, destPath string) *Restic {
	repo := destPath
	if destType != destination.TypeRestServer {
		repo = filepath.Join(destPath, target.Restic.Folder)
	}
	var mask *cmdexec.PathMask
	if target.Mask != nil {
		mask = &cmdexec.PathMask{Real: target.Mask.Real, Masked: target.Mask.Masked}
	}
	return &Restic{
		Runner:   runner,
		Repo:     repo,
		Password: target.Restic.Password,
		Mask:     mask,
		Args:     target.Restic.Args,
	}
}

func (r *Restic) run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"restic", "-r", r.Repo}, args...)
	return r.Runner.Run(ctx, cmdexec.Command{
		Argv: argv,
		Env:  map[string]string{resticPasswordVar: r.Password},
		Mask: r.Mask,
	})
}

// EnsureRepo initialises the repository if it does not exist yet. An
// already-initialised repository is left untouched.
func (r *Restic) EnsureRepo(ctx context.Context) error {
	if _, err := r.run(ctx, "cat", "config"); err == nil {
		return nil
	}
	if _, err := r.run(ctx, "init"); err != nil {
		return fmt.Errorf("init repository %s: %w", r.Repo, err)
	}
	return nil
}

// Backup snapshots the sources under the given host name.
func (r *Restic) Backup(ctx context.Context, hostname string, sources []string) error {
	args := []string{"backup", "-H", hostname}
	args = append(args, r.Args...)
	args = append(args, sources...)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("backup to %s: %w", r.Repo, err)
	}
	return nil
}

// Forget applies the retention policy. A nil policy is a no-op.
func (r *Restic) Forget(ctx context.Context, policy *config.Retention) error {
	if policy == nil {
		return nil
	}
	args := []string{"forget"}
	for _, flag := range []struct {
		name string
		keep int
	}{
		{"--keep-last", policy.KeepLast},
		{"--keep-daily", policy.KeepDaily},
		{"--keep-weekly", policy.KeepWeekly},
		{"--keep-monthly", policy.KeepMonthly},
	} {
		if flag.keep > 0 {
			args = append(args, flag.name, strconv.Itoa(flag.keep))
		}
	}
	if policy.Prune {
		args = append(args, "--prune")
	}
	if len(args) == 1 {
		return nil
	}
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("forget on %s: %w", r.Repo, err)
	}
	return nil
}

// Exec passes an arbitrary restic subcommand through to the repository,
// for commands this tool does not model (snapshots, check, restore).
func (r *Restic) Exec(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("restic: no subcommand given")
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return out, fmt.Errorf("restic %s: %w", args[0], err)
	}
	return out, nil
}
