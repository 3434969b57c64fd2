// Package project persists user configuration, sheet presets and finished
// jobs under the user's home directory.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.stickerimposer/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".stickerimposer")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// SaveAppConfig persists an AppConfig to the given path as TOML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadAppConfig reads an AppConfig from the given path. Keys absent from the
// file keep their default value. If the file does not exist, it returns
// DefaultAppConfig with no error. Unknown keys are returned so callers can
// warn about them.
func LoadAppConfig(path string) (model.AppConfig, []string, error) {
	config := model.DefaultAppConfig()
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.DefaultAppConfig(), nil, nil
		}
		return model.AppConfig{}, nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	var unknown []string
	for _, key := range meta.Undecoded() {
		unknown = append(unknown, key.String())
	}
	sort.Strings(unknown)
	return config, unknown, nil
}
