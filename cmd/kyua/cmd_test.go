package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"kyua/internal/driver"
	"kyua/internal/resultproto/atf"
	"kyua/internal/testcase"
)

var testCmd = &cobra.Command{
	Use:   "test [filter...]",
	Short: "Run the test cases matched by filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(args)
		if err != nil {
			return err
		}

		hooks := &streamingHooks{out: cmd.OutOrStdout()}
		d := driver.Driver{}
		outcome, err := d.Run(context.Background(), flagKyuafile, resultsFilePath("default", time.Now()), filters, appConfig, hooks)
		if err != nil {
			return err
		}

		fmt.Fprintf(hooks.out, "%d/%d passed (%d failed)\n", hooks.passed, hooks.total, hooks.failed)

		for _, f := range outcome.UnusedFilters {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: filter %q matched no test cases\n", f)
		}

		if hooks.failed > 0 || len(outcome.UnusedFilters) > 0 {
			exitCode = 1
		}
		return nil
	},
}

type streamingHooks struct {
	out           io.Writer
	total, passed int
	failed        int
}

func (h *streamingHooks) Started(id testcase.CaseID) {}

func (h *streamingHooks) Finished(id testcase.CaseID, result atf.TestResult) {
	h.total++
	if isGoodResult(result.Kind) {
		h.passed++
	} else {
		h.failed++
	}
	fmt.Fprintf(h.out, "%s  ->  %s\n", id.String(), formatResult(result))
}

func formatResult(result atf.TestResult) string {
	if result.Reason == "" {
		return result.Kind.String()
	}
	return fmt.Sprintf("%s: %s", result.Kind.String(), result.Reason)
}

// isGoodResult reports whether kind counts as a non-failing outcome, per
// §7: passed, skipped, and expected-failure are all "good".
func isGoodResult(kind atf.ResultKind) bool {
	return kind == atf.KindPassed || kind == atf.KindSkipped || kind == atf.KindExpectedFailure
}
