package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes a binary in dir and returns what it printed.
type Runner interface {
	Run(ctx context.Context, dir, bin string, args []string) (stdout, stderr []byte, err error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, dir, bin string, args []string) ([]byte, []byte, error)

func (f RunnerFunc) Run(ctx context.Context, dir, bin string, args []string) ([]byte, []byte, error) {
	return f(ctx, dir, bin, args)
}

// ExecRunner runs real processes.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, dir, bin string, args []string) ([]byte, []byte, error) {
	//nolint:gosec // G204: bin is resolved through LookPath from a fixed tool table
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%s: %w", filepath.Base(bin), ctxErr)
		}
		return stdout.Bytes(), stderr.Bytes(), runError(bin, stderr.String(), err)
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// runError names the binary and the last line it printed to stderr.
func runError(bin, stderr string, err error) error {
	name := filepath.Base(bin)
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	lines := strings.Split(stderr, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with status %d: %s: %w", name, exitErr.ExitCode(), last, err)
	}
	return fmt.Errorf("%s: %s: %w", name, last, err)
}

// Asker puts a yes/no question to the user.
type Asker interface {
	Ask(prompt string) (bool, error)
}

// AskerFunc adapts a function to Asker.
type AskerFunc func(prompt string) (bool, error)

func (f AskerFunc) Ask(prompt string) (bool, error) { return f(prompt) }
