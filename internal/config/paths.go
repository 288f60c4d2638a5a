package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/relnote/config.yml
// - macOS: ~/Library/Application Support/relnote/config.yml
// - Windows: %APPDATA%\relnote\config.yml
func UserConfigPath() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "relnote"), nil
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".relnote"
}

// ProjectConfigPath returns .relnote/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectJSONConfigPath returns the JSON alternative to ProjectConfigPath.
func ProjectJSONConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.json")
}
