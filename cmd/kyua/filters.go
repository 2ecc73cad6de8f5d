package main

import (
	"kyua/internal/kyuaerr"
	"kyua/internal/scanner"
)

// parseFilters parses the command line's filter arguments. Unlike
// scanner.New (which tolerates and dedupes exactly-equal filters passed
// programmatically), the CLI rejects duplicate filter arguments outright,
// per §6: "Duplicate filters and non-disjoint filters are rejected as
// usage errors before execution."
func parseFilters(args []string) ([]scanner.Filter, error) {
	seen := make(map[scanner.Filter]struct{}, len(args))
	filters := make([]scanner.Filter, 0, len(args))
	for _, arg := range args {
		f, err := scanner.ParseFilter(arg)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[f]; dup {
			return nil, kyuaerr.NewUsageError("duplicate filter %q", arg)
		}
		seen[f] = struct{}{}
		filters = append(filters, f)
	}

	// scanner.New performs the pairwise disjointness check; run it here
	// (against no programs) purely to surface a usage error before any
	// test case executes.
	if _, err := scanner.New(nil, filters); err != nil {
		return nil, err
	}
	return filters, nil
}
