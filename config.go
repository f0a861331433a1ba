package audiopipe

import "audiopipe/internal/config"

// Config re-exports the persisted pipeline preferences so callers assembling
// a pipeline need only import the root package.
type Config = config.Config

// LoadConfig loads the config from disk, returning defaults on any error.
func LoadConfig() Config { return config.Load() }

// SaveConfig persists cfg to disk.
func SaveConfig(cfg Config) error { return config.Save(cfg) }
