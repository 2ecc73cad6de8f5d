package atf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinePassed(t *testing.T) {
	r, err := ParseLine("passed")
	require.NoError(t, err)
	assert.Equal(t, TagPassed, r.Tag)
	assert.Empty(t, r.Reason)
}

func TestParseLinePassedRejectsReason(t *testing.T) {
	_, err := ParseLine("passed: should not have a reason")
	require.Error(t, err)
}

func TestParseLineFailedWithReason(t *testing.T) {
	r, err := ParseLine("failed: disk full")
	require.NoError(t, err)
	assert.Equal(t, TagFailed, r.Tag)
	assert.Equal(t, "disk full", r.Reason)
}

func TestParseLineRequiresReason(t *testing.T) {
	_, err := ParseLine("failed")
	require.Error(t, err)
}

func TestParseLineExpectedExitWithArg(t *testing.T) {
	r, err := ParseLine("expected_exit(1): known bug")
	require.NoError(t, err)
	assert.Equal(t, TagExpectedExit, r.Tag)
	assert.True(t, r.HasArg)
	assert.Equal(t, 1, r.Arg)
	assert.Equal(t, "known bug", r.Reason)
}

func TestParseLineExpectedExitWithoutArg(t *testing.T) {
	r, err := ParseLine("expected_exit: known bug")
	require.NoError(t, err)
	assert.False(t, r.HasArg)
}

func TestParseLineInvalidArg(t *testing.T) {
	_, err := ParseLine("expected_exit(abc): known bug")
	require.Error(t, err)
}

func TestParseLineUnknownTag(t *testing.T) {
	_, err := ParseLine("bogus: reason")
	require.Error(t, err)
}

func TestParseRejectsMultipleLines(t *testing.T) {
	_, err := Parse(strings.NewReader("passed\npassed\n"))
	require.Error(t, err)
}

func TestParseRejectsEmptyFile(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestParseRejectsMissingTrailingNewline(t *testing.T) {
	_, err := Parse(strings.NewReader("passed"))
	require.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	cases := []*RawResult{
		{Tag: TagPassed},
		{Tag: TagFailed, Reason: "disk full"},
		{Tag: TagExpectedExit, HasArg: true, Arg: 1, Reason: "known bug"},
		{Tag: TagExpectedSignal, Reason: "crashes"},
		{Tag: TagSkipped, Reason: "not applicable here"},
	}
	for _, c := range cases {
		line, err := Format(c)
		require.NoError(t, err)
		parsed, err := ParseLine(line)
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestFormatRejectsEmbeddedNewline(t *testing.T) {
	_, err := Format(&RawResult{Tag: TagFailed, Reason: "line one\nline two"})
	require.Error(t, err)
}

func TestApplyPassedMatchesCleanExit(t *testing.T) {
	result := Apply(&RawResult{Tag: TagPassed}, Status{Exited: true, ExitCode: 0})
	assert.Equal(t, TestResult{Kind: KindPassed}, result)
}

func TestApplyLyingTestIsBroken(t *testing.T) {
	result := Apply(&RawResult{Tag: TagPassed}, Status{Exited: true, ExitCode: 1})
	assert.Equal(t, KindBroken, result.Kind)
	assert.Contains(t, result.Reason, "exited with code 1")
}

func TestApplyFailedMatchesNonZeroExit(t *testing.T) {
	result := Apply(&RawResult{Tag: TagFailed, Reason: "disk full"}, Status{Exited: true, ExitCode: 1})
	assert.Equal(t, TestResult{Kind: KindFailed, Reason: "disk full"}, result)
}

func TestApplyTimeoutWithoutExpectedTimeoutIsBroken(t *testing.T) {
	result := Apply(&RawResult{Tag: TagPassed}, Status{TimedOut: true})
	assert.Equal(t, KindBroken, result.Kind)
	assert.Equal(t, "Test case body timed out", result.Reason)
}

func TestApplyExpectedExitCodeMismatch(t *testing.T) {
	result := Apply(&RawResult{Tag: TagExpectedExit, HasArg: true, Arg: 1, Reason: "x"},
		Status{Exited: true, ExitCode: 0})
	assert.Equal(t, KindBroken, result.Kind)
	assert.Contains(t, result.Reason, "Expected clean exit with code 1 but got code 0")
}

func TestApplyExpectedDeathAlwaysGood(t *testing.T) {
	result := Apply(&RawResult{Tag: TagExpectedDeath, Reason: "flaky hw"}, Status{Signaled: true, Signal: 11})
	assert.Equal(t, TestResult{Kind: KindExpectedFailure, Reason: "flaky hw"}, result)
}

func TestApplyIsIdempotentOnBroken(t *testing.T) {
	raw := &RawResult{Tag: TagPassed}
	status := Status{Exited: true, ExitCode: 1}

	first := Apply(raw, status)
	require.Equal(t, KindBroken, first.Kind)

	// Re-feeding an already-broken raw result through Apply must not mutate
	// it further, regardless of the status supplied the second time.
	second := Apply(&RawResult{Tag: TagBroken, Reason: first.Reason}, Status{Exited: true, ExitCode: 0})
	assert.Equal(t, TestResult{Kind: KindBroken, Reason: first.Reason}, second)
}

func TestApplyMissingFile(t *testing.T) {
	result := ApplyMissing(Status{Exited: true, ExitCode: 1})
	assert.Equal(t, KindBroken, result.Kind)
	assert.Contains(t, result.Reason, "Premature exit")
}

func TestApplyCleanupFailureDowngradesGoodResult(t *testing.T) {
	good := TestResult{Kind: KindPassed}
	result := ApplyCleanup(good, Status{Exited: true, ExitCode: 1}, 60)
	assert.Equal(t, KindBroken, result.Kind)
	assert.Equal(t, "Test case cleanup did not terminate successfully", result.Reason)
}

func TestApplyCleanupTimeout(t *testing.T) {
	good := TestResult{Kind: KindPassed}
	result := ApplyCleanup(good, Status{TimedOut: true}, 60)
	assert.Equal(t, "Test case cleanup timed out after 60 seconds", result.Reason)
}

func TestApplyCleanupSuccessPreservesBody(t *testing.T) {
	good := TestResult{Kind: KindPassed}
	result := ApplyCleanup(good, Status{Exited: true, ExitCode: 0}, 60)
	assert.Equal(t, good, result)
}
