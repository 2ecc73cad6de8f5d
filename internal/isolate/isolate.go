// Package isolate prepares an exec.Cmd to run a test case inside the
// sandbox a fresh child process is expected to inherit: its own process
// group, a scrubbed locale-free environment, a scratch working directory,
// and optionally a dropped-privilege identity.
//
// Go's os/exec has no fork-time callback hook comparable to
// posix_spawn_file_actions or preexec_fn, so the sandbox is not "entered" by
// code running after fork and before exec. Instead Build computes the Dir
// and Env of the exec.Cmd, and ApplyProcessGroup/ApplyCredential set the
// SysProcAttr fields the kernel applies between fork and exec; the umask,
// which is process-wide rather than per-child, is handled separately by
// WithUmask around cmd.Start.
package isolate

import (
	"os"
	"path/filepath"

	"kyua/internal/config"
	"kyua/internal/kyuaerr"
)

// scrubbedEnvVars lists the locale and timezone variables a test case must
// never observe, so that its output is reproducible regardless of the
// runner's own environment.
var scrubbedEnvVars = map[string]struct{}{
	"LANG":        {},
	"LC_ALL":      {},
	"LC_COLLATE":  {},
	"LC_CTYPE":    {},
	"LC_MESSAGES": {},
	"LC_MONETARY": {},
	"LC_NUMERIC":  {},
	"LC_TIME":     {},
	"TZ":          {},
}

// Plan is the result of computing a child's isolated environment: the
// directory to chdir into and the environment it should run with. The
// supervisor applies it to an exec.Cmd before starting the process.
type Plan struct {
	WorkDir string
	Env     []string
}

// Build computes the isolation plan for a child that will run in workDir.
// workDir must already exist and be writable; Build itself performs no
// filesystem I/O beyond checking that workDir is usable, since the actual
// chdir happens in the kernel via exec.Cmd.Dir.
func Build(workDir string) (*Plan, error) {
	if !filepath.IsAbs(workDir) {
		return nil, kyuaerr.NewIsolationError("work directory must be an absolute path: "+workDir, nil)
	}
	info, err := os.Stat(workDir)
	if err != nil {
		return nil, kyuaerr.NewIsolationError("cannot stat work directory "+workDir, err)
	}
	if !info.IsDir() {
		return nil, kyuaerr.NewIsolationError("work directory is not a directory: "+workDir, nil)
	}

	env := make([]string, 0, len(os.Environ()))
	for _, kv := range os.Environ() {
		name := kv
		if idx := indexByte(kv, '='); idx >= 0 {
			name = kv[:idx]
		}
		if _, scrubbed := scrubbedEnvVars[name]; scrubbed {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "HOME="+workDir)

	return &Plan{WorkDir: workDir, Env: env}, nil
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// DropPrivileges reports the uid/gid a child should be dropped to, applying
// the contract of §4.1: only root may drop, only when an unprivileged user
// is configured, and only when the test case actually requires one. It
// never calls setuid/setgid itself — the caller installs the returned
// identity onto exec.Cmd.SysProcAttr.Credential, letting the kernel apply it
// between fork and exec.
func DropPrivileges(user *config.UnprivilegedUser, requiresUnprivileged bool) (uid, gid uint32, drop bool, err error) {
	if !requiresUnprivileged || user == nil {
		return 0, 0, false, nil
	}
	if os.Geteuid() != 0 {
		return 0, 0, false, nil
	}
	if user.UID < 0 || user.GID < 0 {
		return 0, 0, false, kyuaerr.NewIsolationError("unprivileged user has a negative uid or gid", nil)
	}
	return uint32(user.UID), uint32(user.GID), true, nil
}
