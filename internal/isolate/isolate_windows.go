//go:build windows

package isolate

import "syscall"

// WithUmask is a no-op on Windows, which has no umask concept; fn still
// runs so callers can be platform-agnostic.
func WithUmask(mask int, fn func() error) error {
	return fn()
}

// ApplyProcessGroup hides the console window instead of joining a process
// group, since Windows uses job objects rather than POSIX process groups.
func ApplyProcessGroup(attr *syscall.SysProcAttr) {
	attr.HideWindow = true
}

// ApplyCredential is a no-op on Windows; privilege drop by uid/gid has no
// equivalent. DropPrivileges never reports a drop there, since
// os.Geteuid returns -1 on Windows.
func ApplyCredential(attr *syscall.SysProcAttr, uid, gid uint32) {}
