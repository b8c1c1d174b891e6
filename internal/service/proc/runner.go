// Package proc runs external programs behind an interface so pipelines can be
// exercised without spawning real processes.
package proc

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner runs a program to completion and returns its captured output.
// A non-nil error means the program could not be started, exited non-zero,
// or was killed because ctx ended.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// Dir is the working directory of spawned programs. Empty means the
	// current directory.
	Dir string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ExitCode returns the exit status carried by err, or -1 when err is not an
// exit error.
func ExitCode(err error) int {
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}
