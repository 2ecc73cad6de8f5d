// Package main implements the kyua command-line front end (§6): one
// cobra.Command per subcommand, persistent flags shared by all of them, and
// the exit-code contract of §6/§7.
//
// Command implementations are split across cmd_*.go files, one per
// subcommand, matching the teacher's cmd/nerd one-file-per-command
// convention (cmd_auth.go, cmd_query.go, ...).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kyua/internal/config"
	"kyua/internal/interrupt"
	"kyua/internal/kyuaerr"
	"kyua/internal/logging"
)

var (
	flagConfig      string
	flagLogLevel    string
	flagLogFile     string
	flagKyuafile    string
	flagBuildRoot   string
	flagResultsFile string
	flagVerbose     bool

	cliLogger       *zap.Logger
	appConfig       *config.Config
	cancelInterrupt func()

	// exitCode lets a subcommand signal a non-good run (failed tests,
	// unused filters) without treating it as a cobra error: the summary
	// line it prints is the only output, and the process still exits 1.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "kyua",
	Short: "A test execution engine for ATF, plain, and TAP test suites",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if flagVerbose || flagLogLevel == "debug" {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		cliLogger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws, _ := os.Getwd()
		if flagLogFile != "" {
			ws = filepath.Dir(flagLogFile)
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}

		appConfig, err = loadConfig()
		if err != nil {
			return err
		}
		logging.SetDebugMode(appConfig.Logging.DebugMode)
		if cats := appConfig.Logging.Categories; cats != nil {
			enabled := make(map[logging.Category]bool, len(cats))
			for name, on := range cats {
				enabled[logging.Category(name)] = on
			}
			logging.SetCategories(enabled)
		}

		cancelInterrupt = interrupt.Install()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cliLogger != nil {
			_ = cliLogger.Sync()
		}
		logging.CloseAll()
		if cancelInterrupt != nil {
			cancelInterrupt()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func loadConfig() (*config.Config, error) {
	if flagConfig == "" {
		return config.Default(runtime.GOARCH, runtime.GOOS), nil
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, kyuaerr.NewUsageError("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, kyuaerr.NewUsageError("%v", err)
	}
	return cfg, nil
}

// resultsFilePath resolves --results-file per §6: LATEST means
// $HOME/.kyua/store.db.<suite>.<timestamp>; any other value is used as-is.
func resultsFilePath(suite string, now time.Time) string {
	if flagResultsFile != "" && flagResultsFile != "LATEST" {
		return flagResultsFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".kyua",
		fmt.Sprintf("store.db.%s.%s", suite, now.Format("20060102-150405")))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "info", "CLI diagnostic log level")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "logfile", "", "the directory of this path becomes the root of the engine's .kyua/logs category log files")
	rootCmd.PersistentFlags().StringVar(&flagKyuafile, "kyuafile", "Kyuafile", "path to the test suite manifest")
	rootCmd.PersistentFlags().StringVar(&flagBuildRoot, "build-root", "", "not used: test program paths are resolved against the manifest's directory")
	rootCmd.PersistentFlags().StringVar(&flagResultsFile, "results-file", "LATEST", "path to the results database, or LATEST")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose CLI diagnostics")

	rootCmd.AddCommand(listCmd, testCmd, debugCmd, aboutCmd, configCmd, reportCmd, versionCmd)
}

func main() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if _, ok := err.(*kyuaerr.UsageError); ok {
			fmt.Fprintf(os.Stderr, "Type 'kyua help %s' for usage information.\n", cmd.Name())
		}
		os.Exit(exitCodeFor(err))
	}
	os.Exit(exitCode)
}

// exitCodeFor implements §6/§7's exit-code contract: usage errors exit 2,
// everything else that reaches main as an error exits 1.
func exitCodeFor(err error) int {
	if _, ok := err.(*kyuaerr.UsageError); ok {
		return 2
	}
	if _, ok := err.(*kyuaerr.Interrupted); ok {
		return 1
	}
	return 1
}
