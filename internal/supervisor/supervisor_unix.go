//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// killProcessGroup SIGKILLs the entire process group led by cmd's process,
// ensuring grandchildren spawned by the test program are reaped too. Ported
// from the teacher's platform_unix.go:killProcessGroup, trimmed to the
// SIGKILL-only policy §4.2 specifies (no SIGTERM grace period: the timeout
// has already fired).
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil && pgid > 0 {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return
	}

	_ = cmd.Process.Kill()
}
