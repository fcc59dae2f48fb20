// Package config loads user settings for the carousel viewer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/carousel/pkg/lazy"
	"github.com/Dicklesworthstone/carousel/pkg/store"
)

// Config holds the viewer settings.
type Config struct {
	// CellWidth and CellHeight convert terminal cells to pixels.
	CellWidth  int `yaml:"cell_width"`
	CellHeight int `yaml:"cell_height"`

	// Breakpoint is the widest viewport in pixels that counts as mobile.
	Breakpoint int `yaml:"breakpoint"`

	// ResizeDebounce coalesces bursts of terminal resizes.
	ResizeDebounce time.Duration `yaml:"resize_debounce"`
	// ReloadDebounce coalesces deck file changes.
	ReloadDebounce time.Duration `yaml:"reload_debounce"`

	// Lazy overrides the deck's lazy attribute when set.
	Lazy *lazy.Mode `yaml:"lazy,omitempty"`

	// StatePath is the state database; empty disables persistence.
	StatePath   string `yaml:"state_path"`
	// StateDriver selects the SQLite driver: "sqlite3" (cgo) or "sqlite" (pure Go).
	StateDriver string `yaml:"state_driver"`

	// VerifyConcurrency bounds parallel image checks.
	VerifyConcurrency int `yaml:"verify_concurrency"`

	// Watch reloads the deck when its files change.
	Watch bool `yaml:"watch"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		CellWidth:         8,
		CellHeight:        16,
		Breakpoint:        736,
		ResizeDebounce:    100 * time.Millisecond,
		ReloadDebounce:    250 * time.Millisecond,
		StatePath:         store.DefaultPath(),
		StateDriver:       store.DriverCGO,
		VerifyConcurrency: 8,
		Watch:             true,
	}
}

// DefaultPath returns the location of the user config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "carousel", "config.yaml")
}

// Load reads the config at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	if val := os.Getenv("CAROUSEL_CELL_WIDTH"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("CAROUSEL_CELL_WIDTH: %w", err)
		}
		cfg.CellWidth = n
	}
	if val := os.Getenv("CAROUSEL_BREAKPOINT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("CAROUSEL_BREAKPOINT: %w", err)
		}
		cfg.Breakpoint = n
	}
	if val := os.Getenv("CAROUSEL_STATE"); val != "" {
		cfg.StatePath = val
	}
	if val := os.Getenv("CAROUSEL_STATE_DRIVER"); val != "" {
		cfg.StateDriver = val
	}
	if val := os.Getenv("CAROUSEL_LAZY"); val != "" {
		var m lazy.Mode
		if err := m.UnmarshalText([]byte(val)); err != nil {
			return fmt.Errorf("CAROUSEL_LAZY: %w", err)
		}
		cfg.Lazy = &m
	}
	return nil
}

// Validate checks the settings for values the viewer cannot use.
func (c *Config) Validate() error {
	if c.CellWidth < 1 || c.CellHeight < 1 {
		return fmt.Errorf("invalid cell size: %dx%d", c.CellWidth, c.CellHeight)
	}
	if c.Breakpoint < 0 {
		return fmt.Errorf("invalid breakpoint: %d", c.Breakpoint)
	}
	if c.ResizeDebounce < 0 || c.ReloadDebounce < 0 {
		return errors.New("debounce durations must not be negative")
	}
	switch c.StateDriver {
	case "", store.DriverCGO, store.DriverPure:
	default:
		return fmt.Errorf("invalid state driver: %q", c.StateDriver)
	}
	if c.VerifyConcurrency < 1 {
		return fmt.Errorf("invalid verify concurrency: %d", c.VerifyConcurrency)
	}
	return nil
}

// Save writes the config as YAML.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
