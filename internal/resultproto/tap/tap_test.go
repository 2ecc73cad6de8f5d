package tap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeBasic(t *testing.T) {
	input := "1..3\nok 1\nnot ok 2\nok 3 # TODO later\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FirstIndex)
	assert.Equal(t, 3, summary.LastIndex)
	assert.Equal(t, 2, summary.OkCount)
	assert.Equal(t, 1, summary.NotOkCount)
	assert.False(t, summary.BailOut)
	assert.Empty(t, summary.ParseError)

	result := summary.ToTestResult()
	assert.Equal(t, KindFailed, result.Kind)
	assert.Equal(t, "1 tests of 3 failed", result.Reason)
}

func TestSummarizeBailOut(t *testing.T) {
	input := "1..5\nok 1\nBail out! nope\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.True(t, summary.BailOut)

	result := summary.ToTestResult()
	assert.Equal(t, KindFailed, result.Kind)
	assert.Equal(t, "Bailed out", result.Reason)
}

func TestSummarizeAllPassed(t *testing.T) {
	input := "1..2\nok 1\nok 2\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, KindPassed, summary.ToTestResult().Kind)
}

func TestSummarizeDoublePlanIsParseError(t *testing.T) {
	input := "1..2\n1..3\nok 1\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Contains(t, summary.ParseError, "two test plans")
}

func TestSummarizeReversedPlanIsParseError(t *testing.T) {
	input := "5..1\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Contains(t, summary.ParseError, "reversed")
}

func TestSummarizeAllSkipped(t *testing.T) {
	input := "1..0 # SKIP no hardware\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, "no hardware", summary.AllSkippedReason)
}

func TestSummarizeAllSkippedDefaultReason(t *testing.T) {
	input := "1..0 # SKIP\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, "No reason specified", summary.AllSkippedReason)
}

func TestSummarizePlanMismatchIsParseError(t *testing.T) {
	input := "1..3\nok 1\nok 2\n"
	summary, err := Summarize(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Contains(t, summary.ParseError, "differs from actual")
}

func TestSummarizeEchoesUnrecognizedLines(t *testing.T) {
	var echoed []string
	input := "1..1\n# a comment\nok 1\n"
	_, err := Summarize(strings.NewReader(input), func(line string) {
		echoed = append(echoed, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"# a comment"}, echoed)
}
