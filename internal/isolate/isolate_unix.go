//go:build !windows

package isolate

import (
	"sync"
	"syscall"

	"kyua/internal/logging"
)

// umaskMu serializes WithUmask calls. The umask is process-wide state, so
// this is only safe because the engine schedules test cases strictly
// sequentially: no two children are ever started concurrently.
var umaskMu sync.Mutex

// WithUmask sets the process umask to mask, runs fn, and restores the prior
// umask before returning. fn is expected to call cmd.Start for the child
// that should inherit mask.
func WithUmask(mask int, fn func() error) error {
	umaskMu.Lock()
	defer umaskMu.Unlock()

	previous := syscall.Umask(mask)
	logging.Get(logging.CategoryIsolate).Debugf("umask set to %04o (was %04o)", mask, previous)
	defer func() {
		syscall.Umask(previous)
		logging.Get(logging.CategoryIsolate).Debugf("umask restored to %04o", previous)
	}()

	return fn()
}

// ApplyProcessGroup configures attr so the child becomes the leader of a new
// process group, letting the supervisor kill every grandchild on timeout by
// signalling the whole group.
func ApplyProcessGroup(attr *syscall.SysProcAttr) {
	attr.Setpgid = true
}

// ApplyCredential installs a dropped-privilege identity on attr, applied by
// the kernel between fork and exec.
func ApplyCredential(attr *syscall.SysProcAttr, uid, gid uint32) {
	attr.Credential = &syscall.Credential{Uid: uid, Gid: gid}
}
