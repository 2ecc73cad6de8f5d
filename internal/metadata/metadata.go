// Package metadata parses the key/value properties a test program emits
// when listed (§6 "program -l") into the immutable Metadata bag described
// in the data model.
package metadata

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"kyua/internal/kyuaerr"
)

// RequiredUser enumerates the require.user values.
type RequiredUser string

const (
	RequiredUserNone         RequiredUser = ""
	RequiredUserRoot         RequiredUser = "root"
	RequiredUserUnprivileged RequiredUser = "unprivileged"
)

// DefaultTimeout is applied when a test case does not declare timeout.
const DefaultTimeout = 300 * time.Second

// Metadata is the immutable bag of properties associated with a test case.
type Metadata struct {
	Description          string
	HasCleanup           bool
	Timeout              time.Duration
	AllowedArchitectures map[string]struct{}
	AllowedPlatforms     map[string]struct{}
	RequiredConfigs      map[string]struct{}
	RequiredFiles        map[string]struct{}
	RequiredPrograms     map[string]struct{}
	RequiredUser         RequiredUser
	// RequiredMemory is the raw require.memory value. It is recorded but
	// never checked before a test case runs.
	RequiredMemory       string
	UserMetadata         map[string]string
}

// recognized maps the wire-format key name to a setter invoked with its
// value. Unknown keys not prefixed "X-" are a FormatError.
var recognized = map[string]func(m *Metadata, value string) error{
	"descr": func(m *Metadata, v string) error { m.Description = v; return nil },
	"description": func(m *Metadata, v string) error { m.Description = v; return nil },
	"has.cleanup": func(m *Metadata, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return kyuaerr.WrapFormatError("invalid has.cleanup value "+strconv.Quote(v), err)
		}
		m.HasCleanup = b
		return nil
	},
	"timeout": func(m *Metadata, v string) error {
		secs, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return kyuaerr.WrapFormatError("invalid timeout value "+strconv.Quote(v), err)
		}
		m.Timeout = time.Duration(secs) * time.Second
		return nil
	},
	"require.arch": func(m *Metadata, v string) error {
		setFromCommaList(m.AllowedArchitectures, v)
		return nil
	},
	"require.platform": func(m *Metadata, v string) error {
		setFromCommaList(m.AllowedPlatforms, v)
		return nil
	},
	"require.config": func(m *Metadata, v string) error {
		setFromCommaList(m.RequiredConfigs, v)
		return nil
	},
	"require.files": func(m *Metadata, v string) error {
		setFromCommaList(m.RequiredFiles, v)
		return nil
	},
	"require.progs": func(m *Metadata, v string) error {
		setFromCommaList(m.RequiredPrograms, v)
		return nil
	},
	"require.memory": func(m *Metadata, v string) error { m.RequiredMemory = v; return nil },
	"require.user": func(m *Metadata, v string) error {
		switch RequiredUser(v) {
		case RequiredUserNone, RequiredUserRoot, RequiredUserUnprivileged:
			m.RequiredUser = RequiredUser(v)
			return nil
		default:
			return kyuaerr.NewFormatError("invalid require.user value " + strconv.Quote(v))
		}
	},
}

func setFromCommaList(set map[string]struct{}, v string) {
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			set[item] = struct{}{}
		}
	}
}

func empty() *Metadata {
	return &Metadata{
		Timeout:              DefaultTimeout,
		AllowedArchitectures: map[string]struct{}{},
		AllowedPlatforms:     map[string]struct{}{},
		RequiredConfigs:      map[string]struct{}{},
		RequiredFiles:        map[string]struct{}{},
		RequiredPrograms:     map[string]struct{}{},
		UserMetadata:         map[string]string{},
	}
}

// Parse builds a Metadata from the raw key/value properties a test program
// reports. Unknown keys are fatal unless prefixed "X-" (stored verbatim in
// UserMetadata).
func Parse(kv map[string]string) (*Metadata, error) {
	m := empty()

	// Deterministic iteration makes FormatError messages reproducible.
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := kv[key]
		if strings.HasPrefix(key, "X-") {
			m.UserMetadata[key] = value
			continue
		}
		setter, ok := recognized[key]
		if !ok {
			return nil, kyuaerr.NewFormatError("unknown metadata property " + strconv.Quote(key))
		}
		if err := setter(m, value); err != nil {
			return nil, err
		}
	}

	return m, nil
}
