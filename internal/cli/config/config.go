// Package config is the CLI's configuration file: a small YAML document that
// points at a backend and tunes local behavior. Environment variables (see
// the top-level config package) win over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "draftolio.yaml"

// Config is the draftolio.yaml document.
type Config struct {
	BackendURL     string   `yaml:"backend_url"`
	Origin         string   `yaml:"origin"`
	AllowedRegions []string `yaml:"allowed_regions"`
	CachePath      string   `yaml:"cache_path"`
	Logging        Logging  `yaml:"logging"`
}

// Logging is the logging block of the config file.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:     "http://localhost:8080",
		AllowedRegions: []string{"NA1", "EUW1", "EUN1", "KR", "BR1"},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// FindConfigFile searches for draftolio.yaml in the current directory and its
// parents, then in the user config directory.
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	home, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(home, ".config", "draftolio", ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", fmt.Errorf("%s not found in %s, any parent directory, or ~/.config/draftolio", ConfigFileName, currentDir)
}

// Load reads and parses one configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads the nearest config file, falling back to defaults when
// none exists.
func LoadOrDefault() (*Config, error) {
	path, err := FindConfigFile()
	if err != nil {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
