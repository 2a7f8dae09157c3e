package cmdexec

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// PathMask asks the runner to execute the command under a path-remapping
// sandbox so that Real appears at Masked inside the child process. Only
// supported on Linux (via proot); other platforms report ErrMaskUnsupported
// and the caller decides whether to retry without the mask.
type PathMask struct {
	Real   string
	Masked string
}

// Command describes one external command invocation. Env entries are applied
// on top of the parent environment for this single call; credentials such as
// repository passwords are passed here rather than stored on any long-lived
// object.
type Command struct {
	Argv []string
	Env  map[string]string
	Mask *PathMask
}

// Runner executes external commands and returns their captured stdout.
// Keep it small so it stays fakeable in tests.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ErrMaskUnsupported is returned when a PathMask is requested on a platform
// without a path-remap wrapper.
var ErrMaskUnsupported = errors.New("path masking is only supported on Linux")

// CommandError reports a command that started but exited non-zero. Stderr
// carries the full captured error stream.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", strings.Join(e.Argv, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }
