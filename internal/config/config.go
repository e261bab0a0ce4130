// Package config loads the annotator's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"seg-annotator/pkg/colorutil"
)

// Category is a configured annotation class. Color is "#rrggbb"; when empty
// a palette color is assigned.
type Category struct {
	Name  string `toml:"name"`
	Color string `toml:"color"`
}

// Segment holds the click segmenter settings.
type Segment struct {
	// Tolerance is the per-channel Lab distance accepted around a clicked
	// pixel.
	Tolerance float64 `toml:"tolerance"`
	// CloseKernel is the morphological closing kernel size in pixels.
	CloseKernel int `toml:"close_kernel"`
}

// Window holds the initial window size.
type Window struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Config holds the application configuration.
type Config struct {
	DatasetDir       string     `toml:"dataset_dir"`
	LogLevel         string     `toml:"log_level"`
	BrushRadius      int        `toml:"brush_radius"`
	Transparency     float64    `toml:"transparency"`
	TransparencyStep float64    `toml:"transparency_step"`
	Categories       []Category `toml:"categories"`
	Segment          Segment    `toml:"segment"`
	Window           Window     `toml:"window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatasetDir:       ".",
		LogLevel:         "info",
		BrushRadius:      8,
		Transparency:     0.5,
		TransparencyStep: 0.05,
		Categories:       []Category{{Name: "object"}},
		Segment: Segment{
			Tolerance:   18,
			CloseKernel: 5,
		},
		Window: Window{Width: 1920, Height: 1080},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and category definitions.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.BrushRadius < 1 {
		return fmt.Errorf("brush_radius must be at least 1, got %d", c.BrushRadius)
	}
	if c.Transparency < 0 || c.Transparency > 1 {
		return fmt.Errorf("transparency must be within [0, 1], got %g", c.Transparency)
	}
	if c.TransparencyStep <= 0 || c.TransparencyStep > 1 {
		return fmt.Errorf("transparency_step must be within (0, 1], got %g", c.TransparencyStep)
	}
	if len(c.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return errors.New("category with empty name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if cat.Color != "" {
			if _, err := colorutil.ParseHex(cat.Color); err != nil {
				return fmt.Errorf("category %q: %w", cat.Name, err)
			}
		}
	}
	if c.Segment.Tolerance <= 0 {
		return fmt.Errorf("segment.tolerance must be positive, got %g", c.Segment.Tolerance)
	}
	if c.Segment.CloseKernel < 1 {
		return fmt.Errorf("segment.close_kernel must be at least 1, got %d", c.Segment.CloseKernel)
	}
	return nil
}

// CategoryColors resolves each category's color, filling gaps from the
// palette.
func (c *Config) CategoryColors() []color.NRGBA {
	palette := colorutil.Palette(len(c.Categories))
	out := make([]color.NRGBA, len(c.Categories))
	for i, cat := range c.Categories {
		out[i] = palette[i]
		if cat.Color == "" {
			continue
		}
		if col, err := colorutil.ParseHex(cat.Color); err == nil {
			out[i] = col
		}
	}
	return out
}

// CategoryNames lists the category names in order.
func (c *Config) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
