// Package config handles user configuration of the progress display.
//
// Config is stored at $XDG_CONFIG_HOME/prettybuild/config.yaml (defaults to
// ~/.config/prettybuild/config.yaml). Every field is optional; missing
// fields keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTick            = 50 * time.Millisecond
	DefaultAnimationPeriod = 10
	DefaultFallbackWidth   = 80
	DefaultMoreMarker      = ">"
)

// Config holds display settings.
type Config struct {
	Tick            time.Duration `yaml:"tick"`             // time between frames
	AnimationPeriod int           `yaml:"animation_period"` // ticks per ellipsis frame
	FallbackWidth   int           `yaml:"fallback_width"`   // columns when the terminal size is unknown
	MoreMarker      string        `yaml:"more_marker"`      // replaces the tail of truncated lines
	ArchiveDir      string        `yaml:"archive_dir,omitempty"`
	Plain           bool          `yaml:"plain"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tick:            DefaultTick,
		AnimationPeriod: DefaultAnimationPeriod,
		FallbackWidth:   DefaultFallbackWidth,
		MoreMarker:      DefaultMoreMarker,
	}
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/prettybuild/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "prettybuild", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "prettybuild", "config.yaml")
}

// Load reads the config file at path, or at Path() when path is empty. A
// missing file yields the defaults (not an error).
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %s", c.Tick))
	}
	if c.AnimationPeriod <= 0 {
		errs = append(errs, fmt.Errorf("animation_period must be positive, got %d", c.AnimationPeriod))
	}
	if c.FallbackWidth <= 0 {
		errs = append(errs, fmt.Errorf("fallback_width must be positive, got %d", c.FallbackWidth))
	}
	if strings.TrimSpace(c.MoreMarker) == "" {
		errs = append(errs, errors.New("more_marker must not be empty"))
	}
	return errors.Join(errs...)
}

// YAML renders c in the config file format.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
