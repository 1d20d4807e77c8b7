package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dd2-manager/pkg/logger"
)

// initializeConfig creates or loads the configuration.
func initializeConfig(providedPath string, defaultPath string, log *logger.Logger) (*Config, error) {
	var config *Config
	var err error

	// Try provided path first if specified
	if providedPath != "" {
		config, err = loadConfigFromPath(providedPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from provided path: %w", err)
		}
		return config, nil
	}

	// Try default path, create if doesn't exist
	if _, statErr := os.Stat(defaultPath); os.IsNotExist(statErr) {
		config, err = DefaultConfig(filepath.Dir(defaultPath), log)
		if err != nil {
			return nil, err
		}
		if err := config.WriteFile(defaultPath); err != nil {
			return nil, err
		}
		config.path = defaultPath
		return config, nil
	}

	config, err = loadConfigFromPath(defaultPath, log)
	if err != nil {
		log.Warn("Falling back to default configuration", "path", defaultPath, "error", err.Error())
		return DefaultConfig(filepath.Dir(defaultPath), log)
	}
	return config, nil
}

// DefaultDir returns <UserConfigDir>/dd2-manager.
func DefaultDir() (string, error) {
	homeConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeConfigDir, AppDir), nil
}

// FindConfig locates and initializes the configuration. A missing default
// file is created; a broken default file falls back to defaults; a broken
// explicit path is an error.
func FindConfig(providedPath string, log *logger.Logger) (*Config, error) {
	log.Info("Looking for configuration", "provided_path", providedPath)

	defaultConfigDir, err := DefaultDir()
	if err != nil {
		log.Error("Failed to get user config directory", err)
		return nil, err
	}
	return findIn(defaultConfigDir, providedPath, log)
}

func findIn(defaultConfigDir, providedPath string, log *logger.Logger) (*Config, error) {
	defaultConfigPath := filepath.Join(defaultConfigDir, DefaultConfigFile)

	log.Debug("Configuration paths",
		"config_dir", defaultConfigDir,
		"config_path", defaultConfigPath)

	log.Debug("Ensuring directory exists", "path", defaultConfigDir)
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		log.Error("Failed to create directory", err, "path", defaultConfigDir)
		return nil, err
	}

	return initializeConfig(providedPath, defaultConfigPath, log)
}
