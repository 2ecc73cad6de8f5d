//go:build windows

package supervisor

import (
	"fmt"
	"os/exec"
)

// killProcessGroup uses taskkill's process-tree flag since Windows has no
// POSIX process groups, matching the teacher's platform_windows.go fallback.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	killCmd := exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", cmd.Process.Pid))
	if err := killCmd.Run(); err != nil {
		_ = cmd.Process.Kill()
	}
}
