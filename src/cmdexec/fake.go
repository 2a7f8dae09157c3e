package cmdexec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResult scripts the outcome of one command in a Fake runner.
type FakeResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Fake is an in-memory Runner for unit tests. Commands are matched by their
// space-joined argv; unmatched commands fail loudly so tests notice probes
// they did not script.
type Fake struct {
	mu      sync.Mutex
	results map[string]FakeResult
	Calls   []Command
}

func NewFake() *Fake {
	return &Fake{results: map[string]FakeResult{}}
}

// Script registers the result returned when argv is run.
func (f *Fake) Script(argv []string, res FakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[strings.Join(argv, " ")] = res
}

func (f *Fake) Run(_ context.Context, cmd Command) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, cmd)

	key := strings.Join(cmd.Argv, " ")
	res, ok := f.results[key]
	if !ok {
		return "", fmt.Errorf("cmdexec fake: unscripted command %q", key)
	}
	if res.ExitCode != 0 {
		return "", &CommandError{Argv: cmd.Argv, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res.Stdout, nil
}

// CallArgv returns the argv of the i-th recorded call, for assertions.
func (f *Fake) CallArgv(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.Calls) {
		return nil
	}
	return f.Calls[i].Argv
}
