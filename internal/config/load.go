package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load resolves the effective configuration. Later sources win:
// built-in defaults, then a config file if one is found, then the
// command-line flags.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)
	return cfg, nil
}

// findConfigFile probes the working directory, then the per-user
// config directory. No hit means defaults only.
func findConfigFile() string {
	for _, path := range []string{
		"./axtool.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for this tool.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "axtool")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "axtool")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "axtool")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "axtool")
	}
}

// loadFromFile merges one YAML file over cfg. Keys absent from the
// file leave the existing values alone.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
