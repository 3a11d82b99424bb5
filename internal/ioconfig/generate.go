package ioconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rmera/goff/internal/config"
	"gopkg.in/yaml.v3"
)

const header = `# goff configuration.
# Every value can be overridden with a GOFF_ environment variable
# (GOFF_MIXING_RULE, GOFF_LOG_LEVEL...) or a command line flag.
#
# mixing_rule: empty keeps the rule of the input file.
# dihedral_form: charmmfsw | RB
# backend: memory | sqlite
# log.level: debug | info | warn | error
# log.format: console | json

`

// GetConfigDir returns ~/.config/goff.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "goff"), nil
}

// GetDefaultConfigPath returns the full path to the default config file.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// DefaultYAML returns the documented default configuration.
func DefaultYAML() ([]byte, error) {
	b, err := yaml.Marshal(config.New())
	if err != nil {
		return nil, err
	}
	return append([]byte(header), b...), nil
}

// GenerateDefault writes the default configuration to path, or to the
// default config path if path is empty, and returns the path written.
// Existing files are not overwritten.
func GenerateDefault(path string) (string, error) {
	if path == "" {
		var err error
		if path, err = GetDefaultConfigPath(); err != nil {
			return "", err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}
	b, err := DefaultYAML()
	if err != nil {
		return "", fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
