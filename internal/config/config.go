// Package config holds the runtime configuration passed to every test case
// and the engine's own logging/execution settings, loaded from YAML in the
// teacher's struct-of-structs, yaml-tagged style.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UnprivilegedUser names the account a test case with require.user =
// unprivileged is dropped to when the runner is root.
type UnprivilegedUser struct {
	Name string `yaml:"name"`
	UID  int    `yaml:"uid"`
	GID  int    `yaml:"gid"`
}

// LoggingConfig controls the engine's own categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// Config is the immutable runtime configuration described in the data
// model: architecture, platform, an optional unprivileged user, and a
// mapping of test-suite name to property name to value.
type Config struct {
	Architecture     string                        `yaml:"architecture"`
	Platform         string                        `yaml:"platform"`
	UnprivilegedUser *UnprivilegedUser              `yaml:"unprivileged_user,omitempty"`
	TestSuites       map[string]map[string]string   `yaml:"test_suites,omitempty"`
	Logging          LoggingConfig                  `yaml:"logging"`
}

// Property looks up a single configuration property for a test suite. ok is
// false when the suite or the property is absent.
func (c *Config) Property(suite, name string) (value string, ok bool) {
	if c == nil {
		return "", false
	}
	props, ok := c.TestSuites[suite]
	if !ok {
		return "", false
	}
	value, ok = props[name]
	return value, ok
}

// Validate checks the config for internal consistency.
func (c *Config) Validate() error {
	if c.Architecture == "" {
		return fmt.Errorf("config: architecture must not be empty")
	}
	if c.Platform == "" {
		return fmt.Errorf("config: platform must not be empty")
	}
	if c.UnprivilegedUser != nil && c.UnprivilegedUser.Name == "" {
		return fmt.Errorf("config: unprivileged_user.name must not be empty when set")
	}
	return nil
}

// Default returns a Config seeded from the current host, matching kyua's
// own "kyua config" defaults: architecture/platform come from the running
// binary's GOARCH/GOOS at build time via the caller, not guessed here.
func Default(architecture, platform string) *Config {
	return &Config{
		Architecture: architecture,
		Platform:     platform,
		TestSuites:   map[string]map[string]string{},
		Logging:      LoggingConfig{DebugMode: false},
	}
}

// Load reads a YAML config file. KYUA_CONFDIR, if set, is tried first as a
// search root for a relative path, mirroring the engine's documented
// environment-variable hook for testing.
func Load(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		if confdir := os.Getenv("KYUA_CONFDIR"); confdir != "" {
			candidate := filepath.Join(confdir, path)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{TestSuites: map[string]map[string]string{}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.TestSuites == nil {
		cfg.TestSuites = map[string]map[string]string{}
	}
	return cfg, nil
}
