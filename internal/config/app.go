// Package config loads the client configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
)

// Config holds the settings needed to reach the server and open the
// preference database.
type Config struct {
	ServerURL       string
	PreferencesPath string
	Timeout         time.Duration
}

// Load builds the configuration. It follows this precedence:
// 1. Viper configuration (from flags, config file or FINFLOW_ env vars)
// 2. Direct environment variables (FINFLOW_API_URL, XDG_DATA_HOME)
// 3. Default values
func Load() (*Config, error) {
	cfg := &Config{
		ServerURL: DefaultServerURL,
		Timeout:   DefaultTimeout,
	}

	if v := viper.GetString("server.url"); v != "" {
		cfg.ServerURL = v
	} else if v := os.Getenv("FINFLOW_API_URL"); v != "" {
		cfg.ServerURL = v
	}

	if v := viper.GetDuration("server.timeout"); v > 0 {
		cfg.Timeout = v
	}

	if v := viper.GetString("preferences.path"); v != "" {
		cfg.PreferencesPath = ExpandPath(v)
	} else {
		path, err := DefaultPreferencesPath()
		if err != nil {
			return nil, err
		}
		cfg.PreferencesPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Timeout)
	}
	if c.PreferencesPath == "" {
		return fmt.Errorf("preferences path cannot be empty")
	}
	return nil
}

// DefaultPreferencesPath returns the preference database location under
// XDG_DATA_HOME, or ~/.local/share when it is unset.
func DefaultPreferencesPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataDir, "finflow", "prefs.db"), nil
}

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
