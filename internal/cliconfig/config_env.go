package cliconfig

import "os"

// ApplyEnvConfig applies VMDREMUX_* environment variables to the Config.
// Values from the environment override the config file but lose to flags
// that were explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", os.Getenv("VMDREMUX_LOG_LEVEL"), &cfg.LogLevel)
	s.setBoolFromString("meta", os.Getenv("VMDREMUX_META"), &cfg.Meta)
	s.setBoolFromString("watch", os.Getenv("VMDREMUX_WATCH"), &cfg.Watch)
	return s.setDuration("watch-debounce", os.Getenv("VMDREMUX_WATCH_DEBOUNCE"), &cfg.WatchDebounce)
}
