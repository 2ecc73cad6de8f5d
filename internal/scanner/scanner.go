// Package scanner implements the scanner half of C5: expanding a manifest's
// test programs and a set of user filters into a lazy sequence of
// (program, case) work items, honoring filter disjointness and tracking
// which filters were actually used.
//
// Grounded on the teacher's internal/regression/battery.go
// sequential-iteration shape (load once, iterate in input order), but
// deliberately NOT fail-fast: unlike RunBattery, which stops at the first
// failing task, this scanner never aborts on one case's outcome — a test
// suite's later cases must still run after an earlier one fails.
package scanner

import (
	"bufio"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"kyua/internal/kyuaerr"
	"kyua/internal/manifest"
	"kyua/internal/metadata"
	"kyua/internal/testcase"
)

var errEmptyFilter = kyuaerr.NewUsageError("empty filter expression")

func errMalformedFilter(s string) error {
	return kyuaerr.NewUsageError("malformed filter %q", s)
}

func errConflictingFilters(a, b Filter) error {
	return kyuaerr.NewUsageError("filter %q overlaps filter %q", a, b)
}

// caseInfo is one entry of a program's case listing: its name and the
// metadata the program reported for it.
type caseInfo struct {
	name string
	meta *metadata.Metadata
}

// Scanner lazily iterates the (program, case) pairs matched by filters (or
// all pairs, if filters is empty). Programs are listed on demand, the first
// time their cases are needed.
type Scanner struct {
	programs []manifest.ProgramEntry
	filters  []Filter
	used     map[Filter]bool

	listCases func(manifest.ProgramEntry) ([]caseInfo, error)

	progIdx     int
	curProgram  manifest.ProgramEntry
	curCases    []caseInfo
	caseIdx     int
	casesLoaded bool
}

// New validates filter disjointness and returns a Scanner ready to iterate
// programs in input order.
func New(programs []manifest.ProgramEntry, filters []Filter) (*Scanner, error) {
	deduped := dedupeFilters(filters)
	if err := validateDisjoint(deduped); err != nil {
		return nil, err
	}
	return &Scanner{
		programs:  programs,
		filters:   deduped,
		used:      make(map[Filter]bool, len(deduped)),
		listCases: listCasesViaProgram,
	}, nil
}

// Next returns the next matching (program, case) pair along with the
// metadata the program reported for it. ok is false once every program has
// been exhausted.
func (s *Scanner) Next() (testcase.CaseID, *metadata.Metadata, bool, error) {
	for {
		if s.caseIdx >= len(s.curCases) {
			if !s.advanceProgram() {
				return testcase.CaseID{}, nil, false, nil
			}
			if len(s.filters) > 0 && !s.anyFilterMatchesProgram(s.curProgram.RelativePath) {
				continue
			}
			cases, err := s.listCases(s.curProgram)
			if err != nil {
				return testcase.CaseID{}, nil, false, err
			}
			s.curCases = cases
			s.caseIdx = 0
			continue
		}

		info := s.curCases[s.caseIdx]
		s.caseIdx++

		if !s.matchesAny(s.curProgram.RelativePath, info.name) {
			continue
		}

		id := testcase.CaseID{
			Program: testcase.ProgramID{
				RelativePath: s.curProgram.RelativePath,
				AbsolutePath: s.curProgram.AbsolutePath,
				SuiteName:    s.curProgram.Suite,
			},
			Name: info.name,
		}
		return id, info.meta, true, nil
	}
}

// UnusedFilters returns the filters that never matched any (program, case)
// pair over the course of the scan, in input order.
func (s *Scanner) UnusedFilters() []Filter {
	var unused []Filter
	for _, f := range s.filters {
		if !s.used[f] {
			unused = append(unused, f)
		}
	}
	return unused
}

func (s *Scanner) advanceProgram() bool {
	if s.progIdx >= len(s.programs) {
		return false
	}
	s.curProgram = s.programs[s.progIdx]
	s.progIdx++
	s.curCases = nil
	s.caseIdx = 0
	return true
}

func (s *Scanner) anyFilterMatchesProgram(relPath string) bool {
	for _, f := range s.filters {
		if f.matchesProgram(relPath) {
			return true
		}
	}
	return false
}

func (s *Scanner) matchesAny(relPath, caseName string) bool {
	if len(s.filters) == 0 {
		return true
	}
	matched := false
	for _, f := range s.filters {
		if f.matches(relPath, caseName) {
			s.used[f] = true
			matched = true
		}
	}
	return matched
}

const maxListingLineBytes = 1 << 20

var listingLineRegex = regexp.MustCompile(`^([A-Za-z0-9_.-]+):\s?(.*)$`)

// listCasesViaProgram spawns program -l and parses its key/value listing
// per §6: "key: value\n lines followed by a blank line per test case; a
// line starting ident: begins a new case."
func listCasesViaProgram(program manifest.ProgramEntry) ([]caseInfo, error) {
	cmd := exec.Command(program.AbsolutePath, "-l")
	out, err := cmd.Output()
	if err != nil {
		return nil, kyuaerr.NewSystemError("listing test cases of "+program.RelativePath, err)
	}
	return parseListing(string(out), program.RelativePath)
}

func parseListing(output, programPath string) ([]caseInfo, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), maxListingLineBytes)

	var cases []caseInfo
	kv := map[string]string{}

	flush := func() error {
		if len(kv) == 0 {
			return nil
		}
		name, ok := kv["ident"]
		if !ok {
			return kyuaerr.NewFormatError(programPath + ": test case listing entry missing 'ident'")
		}
		props := make(map[string]string, len(kv)-1)
		for k, v := range kv {
			if k != "ident" {
				props[k] = v
			}
		}
		meta, err := metadata.Parse(props)
		if err != nil {
			return kyuaerr.WrapFormatError(programPath+": case "+name, err)
		}
		cases = append(cases, caseInfo{name: name, meta: meta})
		kv = map[string]string{}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		m := listingLineRegex.FindStringSubmatch(line)
		if m == nil {
			return nil, kyuaerr.NewFormatError(fmt.Sprintf("%s: malformed test case listing line %q", programPath, line))
		}
		if m[1] == "ident" {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		kv[m[1]] = m[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, kyuaerr.NewSystemError("reading test case listing of "+programPath, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(cases) == 0 {
		return nil, kyuaerr.NewFormatError(programPath + ": reported no test cases")
	}
	return cases, nil
}
