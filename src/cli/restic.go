package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bare-backup/src/destination"
	"bare-backup/src/engine"
	"bare-backup/src/mount"
)

func newResticCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "restic TARGET -- ARGS...",
		Short: "Run a raw restic command against a target's repository",
		Long: "Resolve the named target's destination, then run restic with the\n" +
			"given arguments against its repository, e.g.\n" +
			"  bare restic nas -- snapshots --json",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession(cmd)
			if err != nil {
				return err
			}
			name := args[0]
			target, ok := session[name]
			if !ok {
				return fmt.Errorf("unknown target %q (configured: %v)", name, session.Names())
			}
			stack, err := newMountStack()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			handler := destination.NewHandler(target.Destination, target.RelPath, stack.dispatcher, stack.registry)
			handler.MountOptions = mount.Options{GocryptfsPassword: target.VolumePassword}

			return handler.With(ctx, func(path string) error {
				restic := engine.NewRestic(stack.runner, target, handler.Type, path)
				out, err := restic.Exec(ctx, args[1:])
				if out != "" {
					fmt.Fprintln(stdout, out)
				}
				return err
			})
		},
	}
}
