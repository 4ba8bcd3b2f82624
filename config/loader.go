package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "ecospheres.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/ecospheres-vocabularies"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvDatabaseURL overrides the database connection string
	EnvDatabaseURL = "VOCABULARIES_DATABASE_URL"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/ecospheres-vocabularies/config.yaml)
// 3. Project config (ecospheres.yaml in the current directory)
// 4. Environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	if _, err := os.Stat(ProjectConfigFile); err == nil {
		if projectConfig, err := LoadFromFile(ProjectConfigFile); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", ProjectConfigFile))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", ProjectConfigFile), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if url := os.Getenv(EnvDatabaseURL); url != "" {
		config.Database.URL = url
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
