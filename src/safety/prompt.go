// Package safety gates destructive operations (unmounting volumes, cleaning
// session directories) behind an interactive confirmation.
package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options carry the global flags that bypass or neuter the prompt.
type Options struct {
	// DryRun declines every confirmation so no action is taken.
	DryRun bool
	// Yes accepts every confirmation without prompting.
	Yes bool
}

// Confirm prompts the user with a y/N question and reports their answer.
// DryRun wins over Yes: with both set nothing is confirmed.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.DryRun {
		return false, nil
	}
	if opts.Yes {
		return true, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	ans := strings.TrimSpace(strings.ToLower(line))
	return ans == "y" || ans == "yes", nil
}
