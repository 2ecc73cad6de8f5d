// Package runner implements the test-case runner (C4): requirement checks,
// work-directory lifecycle, body/cleanup phases via internal/supervisor,
// and result computation/reconciliation via internal/resultproto/atf.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"kyua/internal/config"
	"kyua/internal/interrupt"
	"kyua/internal/isolate"
	"kyua/internal/kyuaerr"
	"kyua/internal/logging"
	"kyua/internal/metadata"
	"kyua/internal/resultproto/atf"
	"kyua/internal/supervisor"
	"kyua/internal/testcase"
	"kyua/internal/workdir"
)

// Streams optionally overrides the body phase's stdout and stderr
// destinations; a nil Streams falls back to files inside the work
// directory. Cleanup output always goes to files inside the work directory.
// A non-nil Streams also leaves the work directory in place after Run
// returns. Debug always supplies both paths.
type Streams struct {
	Stdout string
	Stderr string
}

// Run executes one test case's body (and cleanup, if declared) and returns
// its final, reconciled TestResult. It never returns a Go error for
// per-test-case failures — every failure mode becomes part of the
// TestResult per §7's containment policy — except kyuaerr.Interrupted,
// which callers must propagate after their own local cleanup.
func Run(ctx context.Context, id testcase.CaseID, meta *metadata.Metadata, cfg *config.Config, streams *Streams) (atf.TestResult, error) {
	log := logging.Get(logging.CategoryRunner)

	if reason, skip := checkRequirements(id, meta, cfg); skip {
		log.Infof("%s skipped: %s", id, reason)
		return atf.TestResult{Kind: atf.KindSkipped, Reason: reason}, nil
	}

	wd, err := workdir.New(tmpDir())
	if err != nil {
		return atf.TestResult{Kind: atf.KindBroken, Reason: err.Error()}, nil
	}

	uid, gid, dropPriv, err := isolate.DropPrivileges(cfg.UnprivilegedUser, meta.RequiredUser == metadata.RequiredUserUnprivileged)
	if err != nil {
		_ = wd.Close()
		return atf.TestResult{Kind: atf.KindBroken, Reason: err.Error()}, nil
	}
	if dropPriv {
		if err := wd.Chown(int(uid), int(gid)); err != nil {
			_ = wd.Close()
			return atf.TestResult{Kind: atf.KindBroken, Reason: err.Error()}, nil
		}
	}

	result, interrupted := runPhases(ctx, id, meta, cfg, wd, streams, dropPriv, uid, gid)

	keepWorkDir := streams != nil
	var closeErr error
	if !keepWorkDir {
		closeErr = wd.Close()
	}

	if interrupted != nil {
		return result, interrupted
	}
	if closeErr != nil {
		log.Warnf("failed to remove work directory for %s: %v", id, closeErr)
	}
	if interrupt.Pending() {
		return result, kyuaerr.NewInterrupted("latched")
	}
	return result, nil
}

// Debug runs exactly one test case with caller-chosen stdout/stderr
// destinations and leaves the work directory in place for inspection.
func Debug(ctx context.Context, id testcase.CaseID, meta *metadata.Metadata, cfg *config.Config, stdoutPath, stderrPath string) (atf.TestResult, error) {
	return Run(ctx, id, meta, cfg, &Streams{Stdout: stdoutPath, Stderr: stderrPath})
}

func runPhases(ctx context.Context, id testcase.CaseID, meta *metadata.Metadata, cfg *config.Config, wd *workdir.Dir, streams *Streams, dropPriv bool, uid, gid uint32) (atf.TestResult, error) {
	log := logging.Get(logging.CategoryRunner)

	stdoutPath, stderrPath := wd.Root+"/stdout.txt", wd.Root+"/stderr.txt"
	if streams != nil {
		stdoutPath, stderrPath = streams.Stdout, streams.Stderr
	}

	bodyArgs := execArgs(id, cfg, wd, "")
	bodySpec := supervisor.ChildSpec{
		Binary:         id.Program.AbsolutePath,
		Args:           bodyArgs,
		WorkDir:        wd.Run,
		StdoutPath:     stdoutPath,
		StderrPath:     stderrPath,
		Timeout:        meta.Timeout,
		DropPrivileges: dropPriv,
		DropUID:        uid,
		DropGID:        gid,
	}

	var pendingInterrupt error
	var result atf.TestResult

	bodyOutcome, err := supervisor.Run(ctx, bodySpec)
	if err != nil {
		if _, ok := err.(*kyuaerr.Interrupted); ok {
			// §4.4 step 6: an interrupt observed during the body is held
			// and re-raised only after the cleanup phase runs, so cleanup
			// still gets a chance to execute.
			pendingInterrupt = err
			result = atf.TestResult{Kind: atf.KindBroken, Reason: "Interrupted"}
		} else {
			log.Errorf("%s: failed to start body: %v", id, err)
			return atf.TestResult{Kind: atf.KindBroken, Reason: err.Error()}, nil
		}
	} else {
		result = computeResult(wd.Root+"/result.txt", toStatus(bodyOutcome))
	}

	if meta.HasCleanup && (pendingInterrupt != nil || isGood(result.Kind)) {
		cleanupStdout, cleanupStderr := wd.Root+"/cleanup-stdout.txt", wd.Root+"/cleanup-stderr.txt"
		cleanupArgs := execArgs(id, cfg, wd, ":cleanup")
		cleanupSpec := supervisor.ChildSpec{
			Binary:         id.Program.AbsolutePath,
			Args:           cleanupArgs,
			WorkDir:        wd.Run,
			StdoutPath:     cleanupStdout,
			StderrPath:     cleanupStderr,
			Timeout:        meta.Timeout,
			DropPrivileges: dropPriv,
			DropUID:        uid,
			DropGID:        gid,
		}
		cleanupOutcome, err := supervisor.Run(ctx, cleanupSpec)
		switch {
		case err != nil:
			if _, ok := err.(*kyuaerr.Interrupted); ok {
				pendingInterrupt = err
			} else if pendingInterrupt == nil {
				result = atf.TestResult{Kind: atf.KindBroken, Reason: "Test case cleanup did not terminate successfully"}
			}
		case pendingInterrupt == nil:
			result = atf.ApplyCleanup(result, toStatus(cleanupOutcome), int(meta.Timeout.Seconds()))
		}
	}

	return result, pendingInterrupt
}

func isGood(kind atf.ResultKind) bool {
	switch kind {
	case atf.KindPassed, atf.KindSkipped, atf.KindExpectedFailure:
		return true
	default:
		return false
	}
}

func computeResult(resultFile string, status atf.Status) atf.TestResult {
	f, err := os.Open(resultFile)
	if err != nil {
		if status.TimedOut {
			return atf.TestResult{Kind: atf.KindBroken, Reason: "Test case body timed out"}
		}
		return atf.ApplyMissing(status)
	}
	defer f.Close()

	raw, err := atf.Parse(f)
	if err != nil {
		return atf.TestResult{Kind: atf.KindBroken, Reason: err.Error()}
	}
	return atf.Apply(raw, status)
}

func toStatus(o *supervisor.Outcome) atf.Status {
	return atf.Status{
		TimedOut: o.TimedOut,
		Exited:   o.Exited,
		ExitCode: o.ExitCode,
		Signaled: o.Signaled,
		Signal:   int(o.Signal),
	}
}

// execArgs builds the argv the test binary is invoked with per §6: -r, -s,
// -v per configuration entry, plus the case name (optionally suffixed
// ":cleanup"). Configuration is passed as repeated -v tokens rather than
// environment variables so that isolation's locale scrubbing can never drop
// it (§9).
func execArgs(id testcase.CaseID, cfg *config.Config, wd *workdir.Dir, suffix string) []string {
	args := []string{
		"-r" + wd.Root + "/result.txt",
		"-s" + filepath.Dir(id.Program.AbsolutePath),
	}
	for key, value := range cfg.TestSuites[id.Program.SuiteName] {
		args = append(args, fmt.Sprintf("-v%s=%s", key, value))
	}
	if cfg.UnprivilegedUser != nil {
		args = append(args, "-vunprivileged-user="+cfg.UnprivilegedUser.Name)
	}
	args = append(args, id.Name+suffix)
	return args
}

func checkRequirements(id testcase.CaseID, meta *metadata.Metadata, cfg *config.Config) (reason string, skip bool) {
	suiteProps := cfg.TestSuites[id.Program.SuiteName]
	for name := range meta.RequiredConfigs {
		if name == "unprivileged-user" {
			if cfg.UnprivilegedUser == nil {
				return "Requires an unprivileged user but none is configured", true
			}
			continue
		}
		if _, ok := suiteProps[name]; !ok {
			return "Required configuration property not defined: " + name, true
		}
	}

	if len(meta.AllowedArchitectures) > 0 {
		if _, ok := meta.AllowedArchitectures[cfg.Architecture]; !ok {
			return "Unsupported architecture " + cfg.Architecture, true
		}
	}
	if len(meta.AllowedPlatforms) > 0 {
		if _, ok := meta.AllowedPlatforms[cfg.Platform]; !ok {
			return "Unsupported platform " + cfg.Platform, true
		}
	}

	switch meta.RequiredUser {
	case metadata.RequiredUserRoot:
		if os.Geteuid() != 0 {
			return "Requires root privileges", true
		}
	case metadata.RequiredUserUnprivileged:
		if os.Geteuid() == 0 && cfg.UnprivilegedUser == nil {
			return "Requires an unprivileged user but the unprivileged-user configuration variable is not defined", true
		}
	}

	for path := range meta.RequiredFiles {
		if _, err := os.Stat(path); err != nil {
			return "Required file " + path + " not found", true
		}
	}
	for prog := range meta.RequiredPrograms {
		if filepath.IsAbs(prog) {
			if _, err := os.Stat(prog); err != nil {
				return "Required program " + prog + " not found", true
			}
			continue
		}
		if _, err := exec.LookPath(prog); err != nil {
			return "Required program " + prog + " not found in PATH", true
		}
	}

	return "", false
}

func tmpDir() string {
	if dir := os.Getenv("TMPDIR"); dir != "" {
		return dir
	}
	return "/tmp"
}
