// Package config loads the application configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// DataDir is the root directory for the database and environment files.
	DataDir string `yaml:"data_dir"`
	// EnvironmentsDir overrides where environment files live. Empty means
	// DataDir/environments.
	EnvironmentsDir string `yaml:"environments_dir"`
	// DefaultEnvironment is the environment activated at startup.
	DefaultEnvironment string `yaml:"default_environment"`
	// AutosaveDelay is the debounce window between the last edit and a save.
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
	// RequestTimeout bounds a single request execution.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir:        "~/.curlew",
		AutosaveDelay:  time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// Load reads the config file at path, overlaying defaults. A missing file is
// not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg.expand()
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg.expand()
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".curlew", "config.yaml")
}

// DatabasePath returns the SQLite database location.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "curlew.db")
}

// EnvironmentsPath returns the environment files directory.
func (c Config) EnvironmentsPath() string {
	if c.EnvironmentsDir != "" {
		return c.EnvironmentsDir
	}
	return filepath.Join(c.DataDir, "environments")
}

// expand resolves "~" prefixes and fills zero durations with defaults.
func (c Config) expand() (Config, error) {
	defaults := Default()
	if c.AutosaveDelay <= 0 {
		c.AutosaveDelay = defaults.AutosaveDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}

	for _, dir := range []*string{&c.DataDir, &c.EnvironmentsDir} {
		if strings.HasPrefix(*dir, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return c, fmt.Errorf("failed to resolve home directory: %w", err)
			}
			*dir = filepath.Join(home, strings.TrimPrefix(*dir, "~"))
		}
	}

	return c, nil
}
