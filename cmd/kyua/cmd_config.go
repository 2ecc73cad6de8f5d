package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved runtime configuration as key = value lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		lines := map[string]string{
			"architecture":       appConfig.Architecture,
			"platform":           appConfig.Platform,
			"logging.debug_mode": fmt.Sprintf("%t", appConfig.Logging.DebugMode),
		}
		if u := appConfig.UnprivilegedUser; u != nil {
			lines["unprivileged_user.name"] = u.Name
			lines["unprivileged_user.uid"] = fmt.Sprintf("%d", u.UID)
			lines["unprivileged_user.gid"] = fmt.Sprintf("%d", u.GID)
		}
		for suite, props := range appConfig.TestSuites {
			for name, value := range props {
				lines[fmt.Sprintf("test_suites.%s.%s", suite, name)] = value
			}
		}

		keys := make([]string, 0, len(lines))
		for k := range lines {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, lines[k])
		}
		return nil
	},
}
