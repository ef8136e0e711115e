// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner spawns the uploader binary and waits for it to finish.
// It is an interface so tests can substitute a fake that records
// invocations instead of touching real hardware.
type Runner interface {
	// Run spawns the command and waits. A non-zero exit status is returned
	// as an *exec.ExitError; any other error means the process never started.
	Run(ctx context.Context, name string, args ...string) error

	// Stdout spawns the command, waits for completion and returns the
	// captured standard output. Reading after the wait avoids truncation.
	Stdout(ctx context.Context, name string, args ...string) (string, error)

	// Stderr spawns the command, waits for completion and returns the
	// captured diagnostic stream, even when the process exits non-zero.
	Stderr(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the default Runner backed by os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (r *ExecRunner) Stdout(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out

	err := cmd.Run()
	return out.String(), err
}

func (r *ExecRunner) Stderr(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

// exitedNonZero reports whether err is a process that ran but exited non-zero,
// as opposed to a process that failed to spawn.
func exitedNonZero(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
