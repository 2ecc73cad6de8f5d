// Package workdir manages the scratch directory lifecycle a test case runs
// inside: created atomically before the test starts, optionally chowned to
// an unprivileged user, and guaranteed to be removed on every exit path via
// a scoped guard rather than an inline try/finally.
package workdir

import (
	"os"
	"path/filepath"

	"kyua/internal/kyuaerr"
	"kyua/internal/logging"
)

// Dir is a scoped guard around a scratch directory. Callers must defer
// Close immediately after New succeeds.
type Dir struct {
	Root string
	Run  string

	closed bool
}

// New creates a uniquely named directory under parent using a kyua.XXXXXX
// template, plus a "run" subdirectory the test case's functor actually
// chdirs into. The runner passes $TMPDIR as parent, falling back to /tmp.
func New(parent string) (*Dir, error) {
	root, err := os.MkdirTemp(parent, "kyua.")
	if err != nil {
		return nil, kyuaerr.NewSystemError("create work directory", err)
	}

	run := filepath.Join(root, "run")
	if err := os.Mkdir(run, 0755); err != nil {
		_ = os.RemoveAll(root)
		return nil, kyuaerr.NewSystemError("create run subdirectory", err)
	}

	logging.Get(logging.CategoryRunner).Debugf("allocated work directory %s", root)
	return &Dir{Root: root, Run: run}, nil
}

// Chown transfers ownership of both the root and run directories to uid/gid,
// used when the test case will run as an unprivileged user so it can still
// write into its own scratch space.
func (d *Dir) Chown(uid, gid int) error {
	if err := os.Chown(d.Root, uid, gid); err != nil {
		return kyuaerr.NewSystemError("chown work directory", err)
	}
	if err := os.Chown(d.Run, uid, gid); err != nil {
		return kyuaerr.NewSystemError("chown run directory", err)
	}
	return nil
}

// Close removes the directory tree recursively. Safe to call more than
// once; only the first call does any work.
func (d *Dir) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	logging.Get(logging.CategoryRunner).Debugf("releasing work directory %s", d.Root)
	if err := os.RemoveAll(d.Root); err != nil {
		return kyuaerr.NewSystemError("remove work directory", err)
	}
	return nil
}
