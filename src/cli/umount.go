package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bare-backup/src/safety"
)

func newUmountCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "umount",
		Short: "Unmount all session-managed volumes and clean up",
		Long: "Unmount every volume mounted under a session directory, then\n" +
			"remove the leftover session directories.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := newMountStack()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			sessions, err := stack.manager.Sessions(ctx)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(stdout, "mounted: %s (%s)\n", s.Path, s.Device)
			}

			ok, err := safetyConfirm(cmd, stderr, "unmount all volumes and clean session directories?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stdout, "nothing unmounted")
				return nil
			}

			if err := stack.manager.UnmountAll(ctx); err != nil {
				return err
			}
			return stack.manager.Clean()
		},
	}
}

// safetyConfirm prompts on the terminal with the global safety flags applied.
func safetyConfirm(cmd *cobra.Command, out io.Writer, question string) (bool, error) {
	return safety.Confirm(getSafetyOptions(cmd), os.Stdin, out, question)
}
