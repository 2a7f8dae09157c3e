package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bare-backup/src/config"
	"bare-backup/src/destination"
	"bare-backup/src/engine"
	"bare-backup/src/mount"
)

func newBackupCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [TARGET ...]",
		Short: "Run the configured backup targets",
		Long: "Run the configured backup targets. Each target's destination is\n" +
			"resolved and mounted when needed, the enabled engines run against\n" +
			"it, and volumes mounted by this run are unmounted again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession(cmd)
			if err != nil {
				return err
			}
			names, err := selectTargets(cmd, session, args)
			if err != nil {
				return err
			}
			stack, err := newMountStack()
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Root().PersistentFlags().GetBool("dry-run")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			for _, name := range names {
				if session[name].Restic.Enable {
					if _, err := engine.DetectRestic(ctx, stack.runner); err != nil {
						return err
					}
					break
				}
			}

			var failed []error
			for i, name := range names {
				target := session[name]
				fmt.Fprintf(stdout, "[%d/%d] Target %s -> %s\n", i+1, len(names), name, target.Destination)
				if err := runTarget(ctx, stack, target, dryRun); err != nil {
					log.Error().Err(err).Str("target", name).Msg("target failed")
					failed = append(failed, fmt.Errorf("target %s: %w", name, err))
					continue
				}
				fmt.Fprintf(stdout, "[%d/%d] Done %s\n", i+1, len(names), name)
			}
			return errors.Join(failed...)
		},
	}
}

// loadSession reads the session file named by --session or the default
// lookup locations.
func loadSession(cmd *cobra.Command) (config.Session, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("session")
	return config.Load(path)
}

// selectTargets resolves which configured targets this invocation covers:
// positional names, the --target flag, or every target in the session.
func selectTargets(cmd *cobra.Command, session config.Session, args []string) ([]string, error) {
	flagTarget, _ := cmd.Root().PersistentFlags().GetString("target")
	if flagTarget != "" {
		args = append(args, flagTarget)
	}
	if len(args) == 0 {
		names := session.Names()
		if len(names) == 0 {
			return nil, errors.New("session file has no usable targets")
		}
		return names, nil
	}
	for _, name := range args {
		if _, ok := session[name]; !ok {
			return nil, fmt.Errorf("unknown target %q (configured: %v)", name, session.Names())
		}
	}
	return args, nil
}

func runTarget(ctx context.Context, stack *mountStack, target config.Target, dryRun bool) error {
	if target.CheckHostname && target.Hostname != config.Hostname() {
		log.Warn().
			Str("want", target.Hostname).
			Str("have", config.Hostname()).
			Msg("skipping target pinned to another host")
		return nil
	}

	handler := destination.NewHandler(target.Destination, target.RelPath, stack.dispatcher, stack.registry)
	handler.MountOptions = mount.Options{GocryptfsPassword: target.VolumePassword}

	return handler.With(ctx, func(path string) error {
		if target.Restic.Enable {
			restic := engine.NewRestic(stack.runner, target, handler.Type, path)
			if dryRun {
				restic.Args = append(restic.Args, "--dry-run")
			}
			if !dryRun {
				if err := restic.EnsureRepo(ctx); err != nil {
					return err
				}
			}
			if err := restic.Backup(ctx, target.Hostname, target.Sources); err != nil {
				return err
			}
			if !dryRun {
				if err := restic.Forget(ctx, target.Restic.Forget); err != nil {
					return err
				}
			}
		}
		if target.Rsync.Enable {
			if handler.Type == destination.TypeRestServer {
				log.Warn().Str("destination", target.Destination).
					Msg("rsync cannot mirror to a rest server, skipping")
				return nil
			}
			rsync := engine.NewRsync(stack.runner, target, path)
			if err := rsync.Sync(ctx, target.Sources, dryRun); err != nil {
				return err
			}
		}
		return nil
	})
}
