// Package viewer wires the annotation core to its collaborators: the
// rasterizer, the event source, the notifier and the prompt a GUI
// frontend provides. It also owns the application configuration and the
// HTML export.
package viewer

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, constructed once at startup
// and passed down explicitly.
type Config struct {
	// ScanDir is the score library root.
	ScanDir string `yaml:"scan_dir"`
	// SortByTitle orders the library by title before composer.
	SortByTitle bool `yaml:"sort_by_title"`

	PenColors      []string `yaml:"pen_colors"`
	DefaultPenSize int      `yaml:"default_pen_size"`
	DefaultFont    string   `yaml:"default_font"`

	// EraseTolerance is the hit-test radius of the eraser, in pixels.
	EraseTolerance float64 `yaml:"erase_tolerance"`
	// ResizeDebounceMS collapses resize bursts into one re-render.
	ResizeDebounceMS int `yaml:"resize_debounce_ms"`

	WindowWidth  int `yaml:"window_width"`
	WindowHeight int `yaml:"window_height"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() Config {
	return Config{
		PenColors:        []string{"black", "red", "blue", "green", "orange", "purple", "magenta"},
		DefaultPenSize:   2,
		DefaultFont:      "New Century Schoolbook",
		EraseTolerance:   20,
		ResizeDebounceMS: 150,
		WindowWidth:      1200,
		WindowHeight:     900,
	}
}

// ResizeDebounce returns the debounce window as a duration.
func (c Config) ResizeDebounce() time.Duration {
	return time.Duration(c.ResizeDebounceMS) * time.Millisecond
}

// LoadConfig reads a yaml config file, filling unset fields from the
// defaults and validating the result.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("while parsing %s: %w", filename, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.PenColors) == 0 {
		return fmt.Errorf("no pen colors configured")
	}
	if c.DefaultPenSize < 1 || c.DefaultPenSize > 10 {
		return fmt.Errorf("default pen size %d out of range 1..10", c.DefaultPenSize)
	}
	if c.EraseTolerance <= 0 {
		return fmt.Errorf("erase tolerance must be positive")
	}
	if c.ResizeDebounceMS < 0 {
		return fmt.Errorf("resize debounce must not be negative")
	}
	return nil
}

// SaveDefaultConfig writes the default configuration to filename so a
// first run leaves the user something to edit.
func SaveDefaultConfig(filename string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
