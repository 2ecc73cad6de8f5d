package tap

import "fmt"

// ResultKind mirrors atf.ResultKind's vocabulary restricted to the two
// outcomes a TAP summary can produce directly (Broken, Failed) or the good
// path (Passed). It has no String method; callers needing an
// atf.ResultKind map the three values themselves.
type ResultKind int

const (
	KindPassed ResultKind = iota
	KindFailed
	KindBroken
)

// TestResult is the outcome ToTestResult derives from a Summary.
type TestResult struct {
	Kind   ResultKind
	Reason string
}

// ToTestResult converts a completed Summary into a TestResult per §4.3.4:
// a parse error wins over everything else, then bail-out, then any
// not-ok count, otherwise the run passed.
func (s Summary) ToTestResult() TestResult {
	if s.ParseError != "" {
		return TestResult{Kind: KindBroken, Reason: s.ParseError}
	}
	if s.BailOut {
		return TestResult{Kind: KindFailed, Reason: "Bailed out"}
	}
	if s.NotOkCount > 0 {
		total := s.OkCount + s.NotOkCount
		return TestResult{Kind: KindFailed, Reason: fmt.Sprintf("%d tests of %d failed", s.NotOkCount, total)}
	}
	return TestResult{Kind: KindPassed}
}
