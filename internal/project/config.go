// Package project persists solver configuration and named profiles as JSON
// or YAML files.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/SlabNest/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for config files that are neither JSON nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

// DefaultConfigDir returns ~/.slabnest, or ./.slabnest when the home
// directory cannot be determined.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".slabnest")
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

type codec struct {
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codec{
			marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
			unmarshal: json.Unmarshal,
		}, nil
	case ".yaml", ".yml":
		return codec{marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}, nil
	}
	return codec{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// writeFile encodes v with the codec matching path's extension, creating
// missing parent directories.
func writeFile(path string, v any) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	data, err := c.marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// readFile decodes path into v. It reports false when the file does not
// exist.
func readFile(path string, v any) (bool, error) {
	c, err := codecFor(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := c.unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// SaveConfig writes cfg to path as JSON or YAML depending on the extension.
func SaveConfig(path string, cfg model.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return writeFile(path, cfg)
}

// LoadConfig reads a config file. Keys missing from the file keep their
// default values, and a missing file yields DefaultConfig.
func LoadConfig(path string) (model.Config, error) {
	cfg := model.DefaultConfig()
	if _, err := readFile(path, &cfg); err != nil {
		return model.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
