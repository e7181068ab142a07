package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// current is the process-wide configuration used by the CLI commands.
	current atomic.Pointer[Config]

	// initMu serialises Initialize; initialized is set by its first call,
	// successful or not.
	initMu      sync.Mutex
	initialized bool

	// sourcePath is the file Initialize loaded, reused by ReloadConfig("").
	sourcePath string
)

// Initialize loads path with environment overrides and installs the
// result as the process configuration. Only the first call has an effect.
func Initialize(path string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}
	initialized = true

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	sourcePath = path
	current.Store(cfg)
	return nil
}

// GetConfig returns the process configuration, or nil before a successful
// Initialize.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig replaces the process configuration. Intended for tests.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path again and swaps it in. An empty path reloads the
// file Initialize used. The current configuration stays in place when
// loading or validation fails.
func ReloadConfig(path string) error {
	if path == "" {
		initMu.Lock()
		path = sourcePath
		initMu.Unlock()
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return nil
}

// MustGetConfig returns the process configuration and panics before a
// successful Initialize.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
