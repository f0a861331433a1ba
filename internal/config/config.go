// Package config manages persistent pipeline preferences. Settings are
// stored as JSON at os.UserConfigDir()/audiopipe/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all persistent pipeline preferences: device selection and
// the tunables for every stage in the capture-side DSP chain and the
// adaptive network layer.
type Config struct {
	InputDeviceID  int     `json:"input_device_id"`
	OutputDeviceID int     `json:"output_device_id"`
	Volume         int     `json:"volume"` // percentage, 0-100

	NoiseEnabled bool `json:"noise_enabled"`
	NoiseLevel   int  `json:"noise_level"` // percentage wet blend, 0-100

	AGCEnabled bool `json:"agc_enabled"`
	AGCTarget  int  `json:"agc_target"` // percentage, 0-100

	GateEnabled   bool `json:"gate_enabled"`
	GateThreshold int  `json:"gate_threshold"` // percentage, 0-100

	AECEnabled bool `json:"aec_enabled"`

	VADEnabled   bool    `json:"vad_enabled"`
	VADThreshold float32 `json:"vad_threshold"`

	// Preset selects the Opus encoder profile: "voice" or "music".
	Preset string `json:"preset"`

	// JitterDepth is the target fill depth D of the receive-side jitter
	// buffer, in packets (one packet per 20 ms frame).
	JitterDepth int `json:"jitter_depth"`
}

// Default returns a Config populated with sensible defaults. These are
// application-level starting preferences and differ in places from the
// defaults the stage constructors use on their own (for example, noise
// suppression is enabled here while NewNoiseSuppressor starts disabled).
func Default() Config {
	return Config{
		InputDeviceID:  -1,
		OutputDeviceID: -1,
		Volume:         100,
		NoiseEnabled:   true,
		NoiseLevel:     80,
		AGCEnabled:     false,
		AGCTarget:      20,
		GateEnabled:    true,
		GateThreshold:  10,
		AECEnabled:     true,
		VADEnabled:     false,
		VADThreshold:   0.02,
		Preset:         "voice",
		JitterDepth:    1,
	}
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audiopipe", "config.json"), nil
}

// Load reads the config file and returns it. If the file is missing or
// unreadable, the default config is returned, never an error.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
