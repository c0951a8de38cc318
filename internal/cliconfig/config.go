// Package cliconfig loads and validates the vmdremux CLI configuration.
// Values come from three sources with fixed precedence: command-line flags
// override VMDREMUX_* environment variables, which override the TOML config
// file.
package cliconfig

import (
	"fmt"
	"time"

	"github.com/bitstreamlab/vmdremux/internal/vmd"
)

// Config holds CLI configuration for vmdremux. The three paths come from
// positional arguments only; the remaining fields follow the file/env/flag
// precedence.
type Config struct {
	OriginalPath     string
	IntermediatePath string
	OutputPath       string

	LogLevel      string
	Meta          bool
	Watch         bool
	WatchDebounce time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		WatchDebounce: 200 * time.Millisecond,
	}
}

// Validate checks the configuration for errors. Input paths must exist;
// this runs before any parsing so a bad invocation fails with a clear
// message naming the path.
func (c *Config) Validate() error {
	if c.OriginalPath == "" || c.IntermediatePath == "" || c.OutputPath == "" {
		return fmt.Errorf("original, intermediate and output paths are required")
	}
	for _, p := range []string{c.OriginalPath, c.IntermediatePath} {
		if !FileExists(p) {
			return fmt.Errorf("can't find %s: %w", p, vmd.ErrMissingInput)
		}
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("watch debounce must be positive")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not
// changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false. Used for environment
// variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
