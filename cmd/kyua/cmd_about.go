package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Show licensing and general information about kyua",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "kyua - a test execution engine for ATF, plain, and TAP test suites")
		fmt.Fprintln(cmd.OutOrStdout(), "See the project documentation for licensing and usage details.")
		return nil
	},
}
