// Package prefs persists user preferences and the server address locally.
package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Preference keys.
const (
	keyBaseURL  = "api_base_url"
	keySettings = "settings"
)

// ErrEmptyBaseURL is returned when an empty server address is stored.
var ErrEmptyBaseURL = errors.New("server address cannot be empty")

// Store is a SQLite-backed key-value store for preferences.
type Store struct {
	db             *sql.DB
	logger         *slog.Logger
	path           string
	defaultBaseURL string
}

// Open opens (creating if needed) the preference database at path.
// defaultBaseURL is returned by BaseURL when nothing has been stored.
func Open(path, defaultBaseURL string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("preferences path cannot be empty")
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create preferences directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences database: %w", err)
	}

	// A single connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping preferences database: %w", err)
	}

	return &Store{
		db:             db,
		logger:         slog.Default(),
		path:           path,
		defaultBaseURL: normalizeBaseURL(defaultBaseURL),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// DefaultBaseURL returns the address used when none is stored.
func (s *Store) DefaultBaseURL() string {
	return s.defaultBaseURL
}

// BaseURL returns the stored server address or the default. Read errors
// are logged and the default is used.
func (s *Store) BaseURL(ctx context.Context) string {
	value, ok, err := s.get(ctx, keyBaseURL)
	if err != nil {
		s.logger.Warn("Failed to read stored server address, using default",
			"default", s.defaultBaseURL,
			"error", err)
		return s.defaultBaseURL
	}
	if !ok || value == "" {
		return s.defaultBaseURL
	}
	return value
}

// SetBaseURL stores the server address with a single trailing slash removed.
func (s *Store) SetBaseURL(ctx context.Context, url string) error {
	clean := normalizeBaseURL(url)
	if clean == "" {
		return ErrEmptyBaseURL
	}
	if err := s.put(ctx, keyBaseURL, clean); err != nil {
		return fmt.Errorf("failed to save server address: %w", err)
	}
	slog.Debug("Saved server address", "url", clean)
	return nil
}

// ResetBaseURL forgets the stored address so the default applies again.
func (s *Store) ResetBaseURL(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, keyBaseURL); err != nil {
		return fmt.Errorf("failed to reset server address: %w", err)
	}
	return nil
}

// Settings returns the stored settings merged over the defaults.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()

	value, ok, err := s.get(ctx, keySettings)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}
	if !ok {
		return settings, nil
	}

	var stored model.Settings
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		s.logger.Warn("Stored settings are unreadable, using defaults", "error", err)
		return settings, nil
	}

	if stored.Currency.Valid() {
		settings.Currency = stored.Currency
	}
	if stored.ChartType.Valid() {
		settings.ChartType = stored.ChartType
	}

	return settings, nil
}

// UpdateSettings merges patch into the stored settings and saves the result.
func (s *Store) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return current, err
	}

	merged := patch.Apply(current)
	if !merged.Currency.Valid() {
		return current, fmt.Errorf("%w: unsupported currency %q", common.ErrInvalidSettings, merged.Currency)
	}
	if !merged.ChartType.Valid() {
		return current, fmt.Errorf("%w: unsupported chart type %q", common.ErrInvalidSettings, merged.ChartType)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return current, fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := s.put(ctx, keySettings, string(data)); err != nil {
		return current, fmt.Errorf("failed to save settings: %w", err)
	}

	return merged, nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

// normalizeBaseURL trims whitespace and strips one trailing slash.
func normalizeBaseURL(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
