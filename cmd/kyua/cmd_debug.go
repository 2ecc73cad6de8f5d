package main

import (
	"context"

	"github.com/spf13/cobra"

	"kyua/internal/kyuaerr"
	"kyua/internal/manifest"
	"kyua/internal/runner"
	"kyua/internal/scanner"
)

var (
	debugStdout string
	debugStderr string
)

func init() {
	debugCmd.Flags().StringVar(&debugStdout, "stdout", "/dev/stdout", "file to write the test case's stdout to")
	debugCmd.Flags().StringVar(&debugStderr, "stderr", "/dev/stderr", "file to write the test case's stderr to")
}

var debugCmd = &cobra.Command{
	Use:   "debug program:case",
	Short: "Run a single test case, leaving its work directory in place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := scanner.ParseFilter(args[0])
		if err != nil {
			return err
		}
		if filter.Case == "" {
			return kyuaerr.NewUsageError("debug requires a program:case filter, got %q", args[0])
		}

		m, err := manifest.Load(flagKyuafile)
		if err != nil {
			return err
		}

		sc, err := scanner.New(m.Programs, []scanner.Filter{filter})
		if err != nil {
			return err
		}

		id, meta, ok, err := sc.Next()
		if err != nil {
			return err
		}
		if !ok {
			return kyuaerr.NewUsageError("%s does not match any test case", args[0])
		}

		result, err := runner.Debug(context.Background(), id, meta, appConfig, debugStdout, debugStderr)
		if err != nil {
			return err
		}

		cmd.Printf("%s  ->  %s\n", id.String(), formatResult(result))
		if !isGoodResult(result.Kind) {
			exitCode = 1
		}
		return nil
	},
}
