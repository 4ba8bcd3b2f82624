// Package config provides configuration loading and management for the
// vocabularies toolchain.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete vocabularies configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Dump     DumpConfig     `yaml:"dump"`
	HTTP     HTTPConfig     `yaml:"http"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// DatabaseConfig configures the Postgres connection
type DatabaseConfig struct {
	// URL is the connection string; ${VAR} references are expanded from
	// the environment when the config is loaded
	URL string `yaml:"url"`
}

// DumpConfig configures JSON dump output
type DumpConfig struct {
	// Dir is the directory dump files are written to
	Dir string `yaml:"dir"`
}

// HTTPConfig configures outbound register fetches
type HTTPConfig struct {
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout"`
	// Proxy is an optional proxy URL applied to every fetch
	Proxy string `yaml:"proxy"`
	// User and Password enable basic auth on registers that need it
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// CatalogConfig configures the vocabulary catalog source
type CatalogConfig struct {
	// Path overrides the embedded catalog with a file on disk
	Path string `yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "${DATABASE_URL}",
		},
		Dump: DumpConfig{
			Dir: "vocabularies",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Dump.Dir == "" {
		return fmt.Errorf("dump.dir is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	return nil
}

// DatabaseURL returns the connection string with environment references
// expanded.
func (c *Config) DatabaseURL() string {
	return os.ExpandEnv(c.Database.URL)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Database.URL != "" {
		c.Database.URL = other.Database.URL
	}
	if other.Dump.Dir != "" {
		c.Dump.Dir = other.Dump.Dir
	}
	if other.HTTP.Timeout != 0 {
		c.HTTP.Timeout = other.HTTP.Timeout
	}
	if other.HTTP.Proxy != "" {
		c.HTTP.Proxy = other.HTTP.Proxy
	}
	if other.HTTP.User != "" {
		c.HTTP.User = other.HTTP.User
	}
	if other.HTTP.Password != "" {
		c.HTTP.Password = other.HTTP.Password
	}
	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}
}
