package proc

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestExecRunner_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	stdout, stderr, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(stdout)) != "out" {
		t.Errorf("expected stdout 'out', got %q", stdout)
	}
	if strings.TrimSpace(string(stderr)) != "err" {
		t.Errorf("expected stderr 'err', got %q", stderr)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	_, _, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if code := ExitCode(err); code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, _, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected exec.ErrNotFound, got %v", err)
	}
	if code := ExitCode(err); code != -1 {
		t.Errorf("expected -1 for spawn error, got %d", code)
	}
}
