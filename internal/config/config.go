// Package config loads the optional caldera.toml tool configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file caldera looks for in the working
// directory.
const FileName = "caldera.toml"

// VerifySection configures the verify command.
type VerifySection struct {
	// Jobs caps parallel region workers; 0 means one per CPU.
	Jobs int `toml:"jobs"`
	// Checks lists sweep checks by name; empty means the defaults.
	Checks []string `toml:"checks"`
}

// OutputSection configures report rendering.
type OutputSection struct {
	// Color is one of auto, on, off.
	Color string `toml:"color"`
}

// Config is the parsed caldera.toml.
type Config struct {
	Verify VerifySection `toml:"verify"`
	Output OutputSection `toml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Output: OutputSection{Color: "auto"},
	}
}

// Load parses the configuration at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("parse %s: unknown key %q", path, undec[0].String())
	}
	switch cfg.Output.Color {
	case "", "auto", "on", "off":
	default:
		return nil, fmt.Errorf("parse %s: color must be auto, on or off, got %q", path, cfg.Output.Color)
	}
	return cfg, nil
}

// LoadDefault loads caldera.toml from the working directory when it
// exists, and the defaults otherwise.
func LoadDefault() (*Config, error) {
	cfg, err := Load(FileName)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
