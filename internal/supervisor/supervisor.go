// Package supervisor runs a test program's body or cleanup phase as a child
// process with its output captured to files and its wall-clock runtime
// bounded by a timeout, generalizing the teacher's tactile.DirectExecutor
// (internal/tactile/direct.go) from a generic command executor to the
// specific invocation protocol test programs speak.
package supervisor

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"kyua/internal/interrupt"
	"kyua/internal/isolate"
	"kyua/internal/kyuaerr"
	"kyua/internal/logging"
)

// ChildSpec describes one invocation of a test program.
type ChildSpec struct {
	Binary     string
	Args       []string
	WorkDir    string
	StdoutPath string
	StderrPath string
	Timeout    time.Duration

	// DropUID/DropGID/DropPrivileges mirror isolate.DropPrivileges's result:
	// when DropPrivileges is true the child's credential is set before exec.
	DropPrivileges bool
	DropUID        uint32
	DropGID        uint32
}

// Outcome is the result of running a ChildSpec to completion or timeout.
type Outcome struct {
	// TimedOut is true iff the process was still running when the timeout
	// fired and its process group was killed.
	TimedOut bool

	// Exited is true iff the process terminated normally (including with a
	// non-zero exit code); false when it was killed by a signal.
	Exited   bool
	ExitCode int

	// Signaled is true iff the process was terminated by a signal other
	// than the supervisor's own timeout SIGKILL.
	Signaled bool
	Signal   syscall.Signal
}

// Run starts spec's binary, waits up to spec.Timeout, and reports how it
// terminated. Stdout/stderr destination files are opened in the parent
// (append+create, 0644) before the child starts, matching §4.2's ordering
// so a failure to open is reported before any process exists.
func Run(ctx context.Context, spec ChildSpec) (*Outcome, error) {
	log := logging.Get(logging.CategorySupervisor)

	stdout, err := os.OpenFile(spec.StdoutPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, kyuaerr.NewSystemError("open stdout destination", err)
	}
	defer stdout.Close()

	stderr, err := os.OpenFile(spec.StderrPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, kyuaerr.NewSystemError("open stderr destination", err)
	}
	defer stderr.Close()

	plan, err := isolate.Build(spec.WorkDir)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Binary, spec.Args...)
	cmd.Dir = plan.WorkDir
	cmd.Env = plan.Env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{}
	isolate.ApplyProcessGroup(cmd.SysProcAttr)
	if spec.DropPrivileges {
		isolate.ApplyCredential(cmd.SysProcAttr, spec.DropUID, spec.DropGID)
	}

	log.Debugf("starting %s %v (workdir=%s, timeout=%s)", spec.Binary, spec.Args, plan.WorkDir, spec.Timeout)

	var startErr error
	err = isolate.WithUmask(0022, func() error {
		startErr = cmd.Start()
		return startErr
	})
	if err != nil {
		return nil, kyuaerr.NewSystemError("start child process", err)
	}

	timer := time.NewTimer(spec.Timeout)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	pollInterrupt := time.NewTicker(100 * time.Millisecond)
	defer pollInterrupt.Stop()

	for {
		select {
		case waitErr := <-done:
			return outcomeFromWait(cmd, waitErr, false), nil

		case <-timer.C:
			log.Warnf("timeout after %s, killing process group for pid %d", spec.Timeout, cmd.Process.Pid)
			killProcessGroup(cmd)
			waitErr := <-done
			outcome := outcomeFromWait(cmd, waitErr, true)
			return outcome, nil

		case <-pollInterrupt.C:
			if interrupt.Pending() {
				log.Warnf("interrupt observed while waiting for pid %d", cmd.Process.Pid)
				killProcessGroup(cmd)
				<-done
				return nil, kyuaerr.NewInterrupted("latched")
			}

		case <-ctx.Done():
			killProcessGroup(cmd)
			<-done
			return nil, kyuaerr.NewInterrupted("context canceled")
		}
	}
}

func outcomeFromWait(cmd *exec.Cmd, waitErr error, timedOut bool) *Outcome {
	if timedOut {
		return &Outcome{TimedOut: true}
	}

	if waitErr == nil {
		return &Outcome{Exited: true, ExitCode: 0}
	}

	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if ok && status.Signaled() {
			return &Outcome{Signaled: true, Signal: status.Signal()}
		}
		return &Outcome{Exited: true, ExitCode: exitErr.ExitCode()}
	}

	return &Outcome{Exited: true, ExitCode: -1}
}
