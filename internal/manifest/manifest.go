// Package manifest loads the minimal Kyuafile-equivalent this engine
// consumes: a YAML file naming test programs and the suite each belongs to.
// spec.md treats the manifest parser as an external collaborator, already
// loaded; this package exists only to give the scanner and the CLI's
// list/test/debug subcommands something concrete to load, grounded on the
// teacher's internal/regression/battery.go YAML-manifest convention. It
// does not implement the original Lua-like Kyuafile DSL (see DESIGN.md).
package manifest

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kyua/internal/kyuaerr"
)

// ProgramEntry names one test program and the suite it belongs to.
// RelativePath is the identity §3 defines for TestProgramId; AbsolutePath
// is derived once at load time against the manifest's own directory.
type ProgramEntry struct {
	RelativePath string `yaml:"path"`
	Suite        string `yaml:"suite"`
	AbsolutePath string `yaml:"-"`
}

// Manifest is the parsed Kyuafile-equivalent.
type Manifest struct {
	Programs []ProgramEntry `yaml:"test_programs"`
}

// Load reads and parses a Kyuafile at path. Relative program paths are
// resolved against path's own directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kyuaerr.NewUsageError("cannot read manifest %s: %v", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, kyuaerr.NewUsageError("cannot parse manifest %s: %v", path, err)
	}

	if len(m.Programs) == 0 {
		return nil, kyuaerr.NewUsageError("manifest %s declares no test programs", path)
	}

	baseDir := filepath.Dir(path)
	for i := range m.Programs {
		entry := &m.Programs[i]
		if entry.RelativePath == "" {
			return nil, kyuaerr.NewUsageError("manifest %s has a test program with an empty path", path)
		}
		if entry.Suite == "" {
			return nil, kyuaerr.NewUsageError("manifest %s: program %s has no suite", path, entry.RelativePath)
		}
		if filepath.IsAbs(entry.RelativePath) {
			entry.AbsolutePath = entry.RelativePath
		} else {
			entry.AbsolutePath = filepath.Join(baseDir, entry.RelativePath)
		}
	}

	return &m, nil
}
