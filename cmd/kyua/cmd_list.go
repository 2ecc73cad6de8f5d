package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"kyua/internal/manifest"
	"kyua/internal/metadata"
	"kyua/internal/scanner"
)

var listVerbose bool

func init() {
	listCmd.Flags().BoolVar(&listVerbose, "verbose", false, "print each case's metadata as key = value lines")
}

var listCmd = &cobra.Command{
	Use:   "list [filter...]",
	Short: "List the test cases matched by filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(args)
		if err != nil {
			return err
		}

		m, err := manifest.Load(flagKyuafile)
		if err != nil {
			return err
		}

		sc, err := scanner.New(m.Programs, filters)
		if err != nil {
			return err
		}

		for {
			id, meta, ok, err := sc.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}

			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			if listVerbose {
				printMetadata(cmd.OutOrStdout(), meta)
			}
		}

		if unused := sc.UnusedFilters(); len(unused) > 0 {
			for _, f := range unused {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: filter %q matched no test cases\n", f)
			}
		}
		return nil
	},
}

func printMetadata(w io.Writer, meta *metadata.Metadata) {
	lines := map[string]string{
		"descr":        meta.Description,
		"has.cleanup":  fmt.Sprintf("%t", meta.HasCleanup),
		"timeout":      fmt.Sprintf("%d", int(meta.Timeout.Seconds())),
		"require.user": requiredUserString(meta.RequiredUser),
	}
	for key, values := range map[string]map[string]struct{}{
		"require.arch":     meta.AllowedArchitectures,
		"require.platform": meta.AllowedPlatforms,
		"require.config":   meta.RequiredConfigs,
		"require.files":    meta.RequiredFiles,
		"require.progs":    meta.RequiredPrograms,
	} {
		if len(values) > 0 {
			lines[key] = joinSet(values)
		}
	}
	for key, value := range meta.UserMetadata {
		lines[key] = value
	}

	keys := make([]string, 0, len(lines))
	for k, v := range lines {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "    %s = %s\n", k, lines[k])
	}
}

func requiredUserString(u metadata.RequiredUser) string {
	switch u {
	case metadata.RequiredUserRoot:
		return "root"
	case metadata.RequiredUserUnprivileged:
		return "unprivileged"
	default:
		return ""
	}
}

func joinSet(values map[string]struct{}) string {
	items := make([]string, 0, len(values))
	for v := range values {
		items = append(items, v)
	}
	sort.Strings(items)
	out := ""
	for i, v := range items {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
