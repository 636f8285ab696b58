// Package config loads named device profiles from the console's
// configuration file: JSON extended with // line comments and /* block */
// comments.
//
// Comment stripping is purely textual, in two passes: everything from //
// to end of line, then everything between /* and the nearest following */.
// It is not string-aware, so values that legitimately contain comment
// markers are corrupted. Existing configuration files rely on this exact
// behavior; do not make the stripping syntax-aware.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Profile is one named device's settings, as loaded from the file.
// Values carry whatever types JSON produced; incompatible values fail at
// first use, not at load or merge time.
type Profile map[string]any

// DevicesKey is the administrative selector: loading it returns the whole
// devices mapping instead of a single profile.
const DevicesKey = "devices"

// ConfigError is returned for any configuration failure: unreadable file,
// malformed structure, or an unknown device profile.
type ConfigError struct {
	Msg string
	Err error
}

// Error returns the error message with the wrapped cause, if any.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	lineComments  = regexp.MustCompile(`//.*`)
	blockComments = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// stripComments removes // line comments, then /* block */ comments
// (non-greedy, possibly spanning lines).
func stripComments(content []byte) []byte {
	content = lineComments.ReplaceAll(content, nil)
	return blockComments.ReplaceAll(content, nil)
}

// Load reads the configuration file at path and returns the settings for
// the named device. Passing DevicesKey returns the full devices mapping,
// one entry per configured device.
func Load(path, name string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: "reading configuration", Err: err}
	}

	var doc struct {
		Devices map[string]Profile `json:"devices"`
	}
	if err := json.Unmarshal(stripComments(data), &doc); err != nil {
		return nil, &ConfigError{Msg: "parsing configuration", Err: err}
	}
	if doc.Devices == nil {
		return nil, &ConfigError{Msg: "configuration has no devices section"}
	}

	if name == DevicesKey {
		all := make(Profile, len(doc.Devices))
		for device, profile := range doc.Devices {
			all[device] = profile
		}
		return all, nil
	}

	profile, ok := doc.Devices[name]
	if !ok || len(profile) == 0 {
		return nil, &ConfigError{Msg: fmt.Sprintf("no configuration found for device %s", name)}
	}
	return profile, nil
}
