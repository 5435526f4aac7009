// Package config persists engine startup preferences as JSON. The file is
// optional: a missing or unreadable config falls back to defaults so the
// engine always starts.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultPath is the path to the engine config file, relative to the process
// working directory.
const DefaultPath = "config/engine.json"

// Config holds engine startup preferences. Persisted across runs.
type Config struct {
	WindowTitle  string `json:"window_title"`
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`

	// VSync selects the surface present mode: true for Fifo, false for
	// uncapped presentation.
	VSync bool `json:"vsync"`

	// MSAASamples is the multisample count for the main render pass.
	// Valid values are 1, 4, 8, and 16; anything else falls back to 4.
	MSAASamples int `json:"msaa_samples"`

	// ClearColor is the render pass clear color as RGBA in [0, 1].
	ClearColor [4]float64 `json:"clear_color"`

	// FrameLimit caps the render loop in frames per second. 0 means uncapped.
	FrameLimit float64 `json:"frame_limit"`

	// TickRate is the game logic tick rate in ticks per second.
	TickRate float64 `json:"tick_rate"`

	// Profiling enables frame time and memory statistics logging.
	Profiling bool `json:"profiling"`
}

// Default returns the engine's startup defaults: a 1280x720 window, VSync on,
// 4x MSAA, and a 60Hz tick rate.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		WindowTitle:  "Default Window Title",
		WindowWidth:  1280,
		WindowHeight: 720,
		VSync:        true,
		MSAASamples:  4,
		ClearColor:   [4]float64{0.1, 0.2, 0.3, 1.0},
		FrameLimit:   0,
		TickRate:     60,
	}
}

// Load reads a configuration from the given path. A missing or invalid file
// returns Default() without error and does not create a file.
//
// Parameters:
//   - path: the config file path; empty selects DefaultPath
//
// Returns:
//   - Config: the loaded configuration, or defaults
func Load(path string) Config {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Default()
	}
	return c.normalized()
}

// Save writes the configuration to the given path, creating the parent
// directory if needed.
//
// Parameters:
//   - c: the configuration to write
//   - path: the config file path; empty selects DefaultPath
//
// Returns:
//   - error: non-nil when the directory or file cannot be written
func Save(c Config, path string) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// normalized clamps out-of-range values back to usable ones so a hand-edited
// file cannot produce a zero-sized window or an unsupported sample count.
func (c Config) normalized() Config {
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1280
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 720
	}
	switch c.MSAASamples {
	case 1, 4, 8, 16:
	default:
		c.MSAASamples = 4
	}
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
	if c.FrameLimit < 0 {
		c.FrameLimit = 0
	}
	for i, v := range c.ClearColor {
		if v < 0 {
			c.ClearColor[i] = 0
		}
		if v > 1 {
			c.ClearColor[i] = 1
		}
	}
	return c
}
