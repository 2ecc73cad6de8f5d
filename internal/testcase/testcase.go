// Package testcase defines the identity types shared by the runner,
// scanner, driver, and store: a TestProgramId/TestCaseId pair stable enough
// to key persistence and filter matching (§3).
package testcase

import "strings"

// ProgramID identifies a test binary within a suite. RelativePath is
// suite-relative and is the identity used by filters and CLI output;
// AbsolutePath is derived once at manifest load time and is what the store
// records programs by.
type ProgramID struct {
	RelativePath string
	AbsolutePath string
	SuiteName    string
}

// CaseID is the stable external identity of a test case: the pair
// (program relative path, case name). Name must not contain ':', which is
// reserved as the filter separator.
type CaseID struct {
	Program ProgramID
	Name    string
}

// String renders the id in the "path:case" form used by filters and CLI
// output.
func (c CaseID) String() string {
	return c.Program.RelativePath + ":" + c.Name
}

// ValidName reports whether name is usable as a case name: non-empty and
// free of the ':' separator.
func ValidName(name string) bool {
	return name != "" && !strings.Contains(name, ":")
}
