package tui

import (
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme    themes.Theme
	BaseURL  string
	Settings model.Settings
	Width    int
	Height   int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		Settings: model.DefaultSettings(),
		Width:    80,
		Height:   24,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSettings sets the display preferences.
func WithSettings(settings model.Settings) Option {
	return func(c *Config) {
		c.Settings = settings
	}
}

// WithBaseURL sets the server address shown in the offline diagnostic.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}
