// Package config loads partforge's optional tool configuration.
//
// The configuration file (partforge.toml) carries workstation defaults
// for the CLI: where part build outputs live, where the bundle is
// written, how many parts resolve in parallel. Command-line flags always
// override file values. This is tool configuration only; the bundle
// manifest itself lives in its own YAML document.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "partforge.toml"

// Config holds tool-level defaults for the CLI.
type Config struct {
	// PartsDir is the directory holding per-part built output trees.
	PartsDir string `toml:"parts_dir"`

	// OutputDir is where the merged bundle is materialized.
	OutputDir string `toml:"output_dir"`

	// Jobs bounds concurrent part resolution. Zero means GOMAXPROCS.
	Jobs int `toml:"jobs"`

	// StrictConflicts makes any cross-part path collision fatal instead
	// of resolving it by part order.
	StrictConflicts bool `toml:"strict_conflicts"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		PartsDir:  "parts",
		OutputDir: "bundle",
		Jobs:      runtime.GOMAXPROCS(0),
	}
}

// Load reads the config file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads partforge.toml from the working directory if present,
// otherwise returns the built-in defaults.
func LoadDefault() (Config, error) {
	cfg, err := Load(DefaultFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.PartsDir == "" {
		return fmt.Errorf("parts_dir must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}
