package atf

import "fmt"

// Status is the process-level outcome Apply reconciles a RawResult against.
// TimedOut and Exited/Signaled are mutually exclusive; a timed-out process
// carries no exit code or signal.
type Status struct {
	TimedOut bool
	Exited   bool
	ExitCode int
	Signaled bool
	Signal   int
}

func (s Status) String() string {
	switch {
	case s.TimedOut:
		return "timed out"
	case s.Signaled:
		return fmt.Sprintf("terminated by signal %d", s.Signal)
	case s.Exited:
		return fmt.Sprintf("exited with code %d", s.ExitCode)
	default:
		return "unknown status"
	}
}

// Apply reconciles a self-reported raw result against the process's actual
// termination status (§4.3.2). It is idempotent: Apply(Apply(r, s), s) ==
// Apply(r, s), because every branch that can downgrade to Broken either
// passes Broken through unchanged (first branch) or only fires when raw is
// not already Broken.
func Apply(raw *RawResult, status Status) TestResult {
	// expected_death/expected_timeout never downgrade a Broken input, and
	// neither does any other tag: this short-circuit happens before any
	// reason-string construction, preserving idempotence.
	if raw.Tag == TagBroken {
		return TestResult{Kind: KindBroken, Reason: raw.Reason}
	}

	if status.TimedOut {
		if raw.Tag == TagExpectedTimeout {
			return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}
		}
		return TestResult{Kind: KindBroken, Reason: "Test case body timed out"}
	}

	switch raw.Tag {
	case TagPassed:
		if status.Exited && status.ExitCode == 0 {
			return TestResult{Kind: KindPassed}
		}
		return broken("Passed test case should have reported success but " + status.String())

	case TagFailed:
		if status.Exited && status.ExitCode != 0 {
			return TestResult{Kind: KindFailed, Reason: raw.Reason}
		}
		return broken("Failed test case should have reported failure but " + status.String())

	case TagSkipped:
		if status.Exited && status.ExitCode == 0 {
			return TestResult{Kind: KindSkipped, Reason: raw.Reason}
		}
		return broken("Skipped test case should have reported success but " + status.String())

	case TagExpectedExit:
		if !status.Exited {
			return broken("Expected clean exit but " + status.String())
		}
		if !raw.HasArg {
			return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}
		}
		if status.ExitCode == raw.Arg {
			return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}
		}
		return broken(fmt.Sprintf("Expected clean exit with code %d but got code %d", raw.Arg, status.ExitCode))

	case TagExpectedSignal:
		if !status.Signaled {
			return broken("Expected signal but " + status.String())
		}
		if !raw.HasArg {
			return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}
		}
		if status.Signal == raw.Arg {
			return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}
		}
		return broken(fmt.Sprintf("Expected signal %d but got %d", raw.Arg, status.Signal))

	case TagExpectedDeath:
		return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}

	case TagExpectedFailure:
		if status.Exited && status.ExitCode == 0 {
			return TestResult{Kind: KindExpectedFailure, Reason: raw.Reason}
		}
		return broken("Expected failure should have reported success but " + status.String())

	case TagExpectedTimeout:
		return broken("Expected timeout but " + status.String())

	default:
		return broken(fmt.Sprintf("unrecognized raw result tag %v", raw.Tag))
	}
}

func broken(reason string) TestResult {
	return TestResult{Kind: KindBroken, Reason: reason}
}

// ApplyMissing reconciles a missing result file (§4.4 step 5): legitimate
// input, always Broken with a "Premature exit" reason describing status.
func ApplyMissing(status Status) TestResult {
	return broken("Premature exit: " + status.String())
}

// ApplyCleanup folds the cleanup phase's exit status into an already-good
// body result (§4.3.3). Only called when the body result is good (Passed,
// Skipped, or ExpectedFailure); a bad body result is returned unchanged by
// the caller without consulting this function.
func ApplyCleanup(body TestResult, cleanup Status, timeoutSeconds int) TestResult {
	if cleanup.TimedOut {
		return TestResult{
			Kind:   KindBroken,
			Reason: fmt.Sprintf("Test case cleanup timed out after %d seconds", timeoutSeconds),
		}
	}
	if !cleanup.Exited || cleanup.ExitCode != 0 {
		return TestResult{Kind: KindBroken, Reason: "Test case cleanup did not terminate successfully"}
	}
	return body
}
