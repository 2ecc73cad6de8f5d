package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"kyua/internal/kyuaerr"
	"kyua/internal/store"
)

var reportActionID int64

func init() {
	reportCmd.Flags().Int64Var(&reportActionID, "action", 0, "id of the action to report on; defaults to the most recent one")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a summary of a previous test run's results",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveReportResultsFile(flagResultsFile)
		if err != nil {
			return err
		}

		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()

		actionID := reportActionID
		if actionID == 0 {
			actionID, err = st.LatestActionID()
			if err != nil {
				return err
			}
		}

		it, err := st.ResultsIterator(actionID)
		if err != nil {
			return err
		}
		defer it.Close()

		var total, failed int
		for {
			row, ok, err := it.Next()
			if err != nil {
				if _, isIntegrity := err.(*kyuaerr.IntegrityError); isIntegrity {
					// §7: read-side errors during report generation are
					// non-fatal per row — skip it and keep reporting.
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
					total++
					failed++
					continue
				}
				return err
			}
			if !ok {
				break
			}
			total++
			if !isGoodStoreResult(row.Result.Kind) {
				failed++
			}
			line := fmt.Sprintf("%s:%s  ->  %s", row.BinaryPath, row.CaseName, row.Result.Kind)
			if row.Result.Reason != "" {
				line += ": " + row.Result.Reason
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d passed (%d failed)\n", total-failed, total, failed)
		if failed > 0 {
			exitCode = 1
		}
		return nil
	},
}

func isGoodStoreResult(kind store.ResultKind) bool {
	return kind == store.KindPassed || kind == store.KindSkipped || kind == store.KindExpectedFailure
}

// resolveReportResultsFile resolves --results-file for report, where
// (unlike test, which mints a fresh timestamped path) LATEST means the
// most recently created results database under $HOME/.kyua, across all
// suites.
func resolveReportResultsFile(value string) (string, error) {
	if value != "" && value != "LATEST" {
		return value, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	matches, err := filepath.Glob(filepath.Join(home, ".kyua", "store.db.*"))
	if err != nil || len(matches) == 0 {
		return "", kyuaerr.NewUsageError("no results file found under %s/.kyua", home)
	}
	// Names are store.db.<suite>.<timestamp>: order by the timestamp suffix
	// so the suite name does not decide which file is newest.
	stamp := func(p string) string { return p[strings.LastIndex(p, ".")+1:] }
	sort.SliceStable(matches, func(i, j int) bool { return stamp(matches[i]) < stamp(matches[j]) })
	return matches[len(matches)-1], nil
}
