// Package kyuaerr defines the engine's error taxonomy. Each kind wraps an
// underlying cause and is distinguishable with errors.As so that callers at
// different layers (CLI, driver, runner) can decide how to react: usage
// errors are reported to stderr and never become a TestResult, format and
// isolation errors become a Broken result, store errors abort the action.
package kyuaerr

import "fmt"

// UsageError signals bad command-line input. The CLI reports it to stderr
// with a "Type 'kyua help <sub>'" hint and exits 2. It must never be
// converted into a test result.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func NewUsageError(format string, args ...interface{}) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// FormatError signals malformed input from a test program: an unparseable
// result file, an unknown metadata key, a reason string containing a
// newline. Callers convert it into a Broken TestResult.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func NewFormatError(msg string) *FormatError {
	return &FormatError{Msg: msg}
}

func WrapFormatError(msg string, err error) *FormatError {
	return &FormatError{Msg: msg, Err: err}
}

// SystemError signals a syscall-level failure in the parent process (fork,
// pipe, open, wait). Errors opening per-test resources are converted to
// Broken; a failure to fork aborts the current test case as Broken.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *SystemError) Unwrap() error { return e.Err }

func NewSystemError(op string, err error) *SystemError {
	return &SystemError{Op: op, Err: err}
}

// IsolationError signals a failure preparing a child's sandbox before it
// starts (an unusable work directory, an invalid unprivileged user). It is
// raised in the parent, and the runner turns it into a Broken result.
type IsolationError struct {
	Msg string
	Err error
}

func (e *IsolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *IsolationError) Unwrap() error { return e.Err }

func NewIsolationError(msg string, err error) *IsolationError {
	return &IsolationError{Msg: msg, Err: err}
}

// Interrupted is raised when a user interrupt (SIGHUP/SIGINT/SIGTERM) was
// observed while a test case was running. The driver rolls back the open
// store transaction and the top-level binary prints the error and exits 1,
// the same code as a run with failed tests. Signal names how the interrupt
// was observed ("latched" or "context canceled"), not a signal number.
type Interrupted struct {
	Signal string
}

func (e *Interrupted) Error() string { return fmt.Sprintf("interrupted by signal %s", e.Signal) }

func NewInterrupted(signal string) *Interrupted {
	return &Interrupted{Signal: signal}
}

// StoreError signals a write-side persistence failure. It aborts the
// in-progress action (rollback, re-raise).
type StoreError struct {
	Msg string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(msg string, err error) *StoreError {
	return &StoreError{Msg: msg, Err: err}
}

// IntegrityError signals a malformed row read back from the store (e.g. a
// "passed" result with a non-null reason). Read-side errors are non-fatal
// per row: the offending row is skipped and reported by the caller.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string { return e.Msg }

func NewIntegrityError(format string, args ...interface{}) *IntegrityError {
	return &IntegrityError{Msg: fmt.Sprintf(format, args...)}
}
