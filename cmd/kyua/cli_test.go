package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyua/internal/config"
)

func writeCLIFakeTest(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-l\" ]; then\n" +
		"  printf 'ident: case1\\n\\n'\n" +
		"  exit 0\n" +
		"fi\n" +
		"resultfile=\"\"\n" +
		"for arg in \"$@\"; do\n" +
		"  case \"$arg\" in\n" +
		"    -r*) resultfile=\"${arg#-r}\" ;;\n" +
		"  esac\n" +
		"done\n" +
		"if [ -n \"$resultfile\" ]; then\n" +
		"  printf 'passed\\n' > \"$resultfile\"\n" +
		"fi\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func writeCLIManifest(t *testing.T, dir, programPath string) string {
	t.Helper()
	rel, err := filepath.Rel(dir, programPath)
	require.NoError(t, err)
	path := filepath.Join(dir, "Kyuafile")
	content := "test_programs:\n  - path: " + rel + "\n    suite: mysuite\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestListCmdPrintsMatchedCases(t *testing.T) {
	dir := t.TempDir()
	program := writeCLIFakeTest(t, dir, "fake_test")
	flagKyuafile = writeCLIManifest(t, dir, program)
	defer func() { flagKyuafile = "Kyuafile" }()

	var out bytes.Buffer
	listCmd.SetOut(&out)
	listCmd.SetErr(&out)
	defer listCmd.SetOut(nil)

	err := listCmd.RunE(listCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "fake_test:case1")
}

func TestConfigCmdPrintsResolvedConfig(t *testing.T) {
	appConfig = config.Default("amd64", "linux")
	defer func() { appConfig = nil }()

	var out bytes.Buffer
	configCmd.SetOut(&out)
	defer configCmd.SetOut(nil)

	err := configCmd.RunE(configCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "architecture = amd64")
	assert.Contains(t, out.String(), "platform = linux")
}

func TestAboutCmdPrintsSomething(t *testing.T) {
	var out bytes.Buffer
	aboutCmd.SetOut(&out)
	defer aboutCmd.SetOut(nil)

	err := aboutCmd.RunE(aboutCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "kyua")
}

func TestVersionCmdPrintsVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	err := versionCmd.RunE(versionCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "kyua")
}

func TestTestCmdRunsAndReportsFailure(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "fake_test")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-l\" ]; then\n" +
		"  printf 'ident: case1\\n\\n'\n" +
		"  exit 0\n" +
		"fi\n" +
		"resultfile=\"\"\n" +
		"for arg in \"$@\"; do\n" +
		"  case \"$arg\" in\n" +
		"    -r*) resultfile=\"${arg#-r}\" ;;\n" +
		"  esac\n" +
		"done\n" +
		"if [ -n \"$resultfile\" ]; then\n" +
		"  printf 'failed: deliberate\\n' > \"$resultfile\"\n" +
		"fi\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(program, []byte(script), 0755))

	flagKyuafile = writeCLIManifest(t, dir, program)
	flagResultsFile = filepath.Join(dir, "store.db")
	appConfig = config.Default("amd64", "linux")
	exitCode = 0
	defer func() {
		flagKyuafile = "Kyuafile"
		flagResultsFile = "LATEST"
		appConfig = nil
		exitCode = 0
	}()

	var out bytes.Buffer
	testCmd.SetOut(&out)
	testCmd.SetErr(&out)
	defer testCmd.SetOut(nil)

	err := testCmd.RunE(testCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, out.String(), "failed")
}
