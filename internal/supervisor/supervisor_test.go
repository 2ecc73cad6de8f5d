package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return dir
}

func TestRunCapturesExitCode(t *testing.T) {
	dir := newWorkDir(t)
	spec := ChildSpec{
		Binary:     "/bin/sh",
		Args:       []string{"-c", "exit 7"},
		WorkDir:    dir,
		StdoutPath: filepath.Join(dir, "stdout.txt"),
		StderrPath: filepath.Join(dir, "stderr.txt"),
		Timeout:    5 * time.Second,
	}

	out, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Exited || out.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %+v", out)
	}
}

func TestRunCapturesStdout(t *testing.T) {
	dir := newWorkDir(t)
	spec := ChildSpec{
		Binary:     "/bin/sh",
		Args:       []string{"-c", "echo hello"},
		WorkDir:    dir,
		StdoutPath: filepath.Join(dir, "stdout.txt"),
		StderrPath: filepath.Join(dir, "stderr.txt"),
		Timeout:    5 * time.Second,
	}

	if _, err := Run(context.Background(), spec); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(spec.StdoutPath)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if string(data) != "hello\n" {
		t.Fatalf("unexpected stdout: %q", data)
	}
}

func TestRunTimeoutKillsProcessGroup(t *testing.T) {
	dir := newWorkDir(t)
	spec := ChildSpec{
		Binary:     "/bin/sh",
		Args:       []string{"-c", "sleep 10"},
		WorkDir:    dir,
		StdoutPath: filepath.Join(dir, "stdout.txt"),
		StderrPath: filepath.Join(dir, "stderr.txt"),
		Timeout:    200 * time.Millisecond,
	}

	start := time.Now()
	out, err := Run(context.Background(), spec)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.TimedOut {
		t.Fatalf("expected TimedOut, got %+v", out)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("timeout took too long to be enforced: %s", elapsed)
	}
}

func TestRunFailsWhenBinaryMissing(t *testing.T) {
	dir := newWorkDir(t)
	spec := ChildSpec{
		Binary:     "/nonexistent/binary",
		WorkDir:    dir,
		StdoutPath: filepath.Join(dir, "stdout.txt"),
		StderrPath: filepath.Join(dir, "stderr.txt"),
		Timeout:    time.Second,
	}

	if _, err := Run(context.Background(), spec); err == nil {
		t.Fatalf("expected an error for a missing binary")
	}
}
