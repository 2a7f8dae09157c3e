package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// Local runs commands on the host. The OS name is resolved once at
// construction so mask handling does not re-query the runtime per call.
type Local struct {
	goos string
}

func NewLocal() *Local {
	return &Local{goos: runtime.GOOS}
}

// Run executes the command and returns its captured stdout. Stdout and
// stderr are drained by two goroutines that are joined before the exit code
// is inspected; blocking on Wait with unread pipes can deadlock the child
// once an OS pipe buffer fills.
func (l *Local) Run(ctx context.Context, cmd Command) (string, error) {
	argv, err := l.maskedArgv(cmd)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", errors.New("cmdexec: empty command")
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Env = mergedEnv(cmd.Env)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("cmdexec: capture stdout: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("cmdexec: capture stderr: %w", err)
	}

	log.Debug().Strs("argv", argv).Msg("running command")
	if err := c.Start(); err != nil {
		return "", fmt.Errorf("cmdexec: start %q: %w", argv[0], err)
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&outBuf, stdout)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&errBuf, stderr)
	}()
	wg.Wait()

	if err := c.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &CommandError{
			Argv:     argv,
			ExitCode: exitCode,
			Stderr:   errBuf.String(),
			Err:      err,
		}
	}
	return outBuf.String(), nil
}

// maskedArgv rewrites the argv to run under proot when a path mask is set.
func (l *Local) maskedArgv(cmd Command) ([]string, error) {
	if cmd.Mask == nil {
		return cmd.Argv, nil
	}
	if l.goos != "linux" {
		return nil, fmt.Errorf("cmdexec: mask %s:%s: %w", cmd.Mask.Real, cmd.Mask.Masked, ErrMaskUnsupported)
	}
	argv := []string{"proot", "-b", cmd.Mask.Real + ":" + cmd.Mask.Masked}
	return append(argv, cmd.Argv...), nil
}

func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
