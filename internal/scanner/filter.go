package scanner

import "strings"

// Filter selects a subset of scanned test cases via the path[:case] syntax
// of §3: a path-only filter matches every case under that program path
// prefix; a case-qualified filter matches exactly one case.
type Filter struct {
	Path string
	Case string
}

// ParseFilter parses a "path[:case]" expression.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return Filter{}, errEmptyFilter
	}
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		path, caseName := s[:idx], s[idx+1:]
		if path == "" || caseName == "" {
			return Filter{}, errMalformedFilter(s)
		}
		return Filter{Path: path, Case: caseName}, nil
	}
	return Filter{Path: s}, nil
}

// String renders the filter back into "path[:case]" form.
func (f Filter) String() string {
	if f.Case == "" {
		return f.Path
	}
	return f.Path + ":" + f.Case
}

// matchesProgram reports whether f can match some case of a program with
// the given relative path, independent of case name.
func (f Filter) matchesProgram(relPath string) bool {
	if f.Case == "" {
		return hasPathPrefix(relPath, f.Path)
	}
	return relPath == f.Path
}

// matches reports whether f selects (relPath, caseName), per §4.5.
func (f Filter) matches(relPath, caseName string) bool {
	if f.Case == "" {
		return hasPathPrefix(relPath, f.Path)
	}
	return relPath == f.Path && caseName == f.Case
}

// contains reports whether every (program, case) pair other matches is also
// matched by f, i.e. f's match set is a strict superset of other's.
// Equal filters do not contain each other (§4.5: "equal filters do not
// conflict but are deduplicated").
func (f Filter) contains(other Filter) bool {
	if f == other {
		return false
	}
	if f.Case != "" {
		// A case-qualified filter matches a single pair; it cannot be a
		// strict superset of anything else.
		return false
	}
	if other.Case == "" {
		return other.Path != f.Path && hasPathPrefix(other.Path, f.Path)
	}
	return hasPathPrefix(other.Path, f.Path)
}

// hasPathPrefix reports whether prefix is a component-wise prefix of path,
// e.g. "a" prefixes "a/b" but not "ab".
func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

func dedupeFilters(filters []Filter) []Filter {
	seen := make(map[Filter]struct{}, len(filters))
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// validateDisjoint returns an error naming the first conflicting pair found,
// per §3/§8 scenario 8.
func validateDisjoint(filters []Filter) error {
	for i := range filters {
		for j := range filters {
			if i == j {
				continue
			}
			if filters[i].contains(filters[j]) {
				return errConflictingFilters(filters[i], filters[j])
			}
		}
	}
	return nil
}
