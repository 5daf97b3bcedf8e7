// Package config provides configuration management for the flowline CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

// Output formats accepted by --output.
const (
	OutputAuto     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	OutputText     = "text"
	OutputTable    = "table"
	OutputMarkdown = "markdown"
	OutputJSON     = "json"
	OutputSVG      = "svg"
)

// OutputFormats lists every accepted output format.
var OutputFormats = []string{OutputAuto, OutputText, OutputTable, OutputMarkdown, OutputJSON, OutputSVG}

// Default configuration values.
const (
	DefaultOutput    = OutputAuto
	DefaultLogLevel  = "warn"
	DefaultPort      = 8765
	DefaultCellWidth = 8.0
)

// TimelineConfig holds the geometry of a view.
type TimelineConfig struct {
	Density          float64       `koanf:"density"`
	TickInterval     time.Duration `koanf:"tick_interval"`
	ViewportWidth    float64       `koanf:"viewport_width"`
	TrackOffset      float64       `koanf:"track_offset"`
	WaitThreshold    float64       `koanf:"wait_threshold"`
	PinnedMargin     float64       `koanf:"pinned_margin"`
	RowHeight        float64       `koanf:"row_height"`
	BarHeight        float64       `koanf:"bar_height"`
	PlaceholderWidth float64       `koanf:"placeholder_width"`
	DollarsPerMs     float64       `koanf:"dollars_per_ms"`
	ShowCost         bool          `koanf:"show_cost"`
}

// Timeline converts the configuration to timeline parameters.
func (c TimelineConfig) Timeline() timeline.Config {
	return timeline.Config{
		Density:          c.Density,
		TickInterval:     c.TickInterval,
		ViewportWidth:    c.ViewportWidth,
		TrackOffset:      c.TrackOffset,
		WaitThreshold:    c.WaitThreshold,
		PinnedMargin:     c.PinnedMargin,
		RowHeight:        c.RowHeight,
		BarHeight:        c.BarHeight,
		PlaceholderWidth: c.PlaceholderWidth,
		DollarsPerMs:     c.DollarsPerMs,
		ShowCost:         c.ShowCost,
	}
}

// timelineConfigFrom mirrors timeline parameters into configuration.
func timelineConfigFrom(tl timeline.Config) TimelineConfig {
	return TimelineConfig{
		Density:          tl.Density,
		TickInterval:     tl.TickInterval,
		ViewportWidth:    tl.ViewportWidth,
		TrackOffset:      tl.TrackOffset,
		WaitThreshold:    tl.WaitThreshold,
		PinnedMargin:     tl.PinnedMargin,
		RowHeight:        tl.RowHeight,
		BarHeight:        tl.BarHeight,
		PlaceholderWidth: tl.PlaceholderWidth,
		DollarsPerMs:     tl.DollarsPerMs,
		ShowCost:         tl.ShowCost,
	}
}

// UIConfig holds configuration for the browser view and terminal drawing.
type UIConfig struct {
	Port int `koanf:"port"`
	// CellWidth is the number of layout pixels per terminal cell.
	CellWidth float64 `koanf:"cell_width"`
	// DatastarURL overrides the client bundle location.
	DatastarURL string `koanf:"datastar_url"`
}

// Config holds all CLI configuration options.
type Config struct {
	Verbose  bool           `koanf:"verbose"`
	LogLevel string         `koanf:"log_level"`
	Output   string         `koanf:"output"`
	Live     bool           `koanf:"live"`
	Timeline TimelineConfig `koanf:"timeline"`
	UI       UIConfig       `koanf:"ui"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Output:   DefaultOutput,
		Live:     true,
		Timeline: timelineConfigFrom(timeline.DefaultConfig()),
		UI: UIConfig{
			Port:      DefaultPort,
			CellWidth: DefaultCellWidth,
		},
	}
}

// defaults returns the flattened default values loaded first.
func defaults() map[string]interface{} {
	tl := timeline.DefaultConfig()
	return map[string]interface{}{
		"verbose":                    false,
		"log_level":                  DefaultLogLevel,
		"output":                     DefaultOutput,
		"live":                       true,
		"timeline.density":           tl.Density,
		"timeline.tick_interval":     tl.TickInterval.String(),
		"timeline.viewport_width":    tl.ViewportWidth,
		"timeline.track_offset":      tl.TrackOffset,
		"timeline.wait_threshold":    tl.WaitThreshold,
		"timeline.pinned_margin":     tl.PinnedMargin,
		"timeline.row_height":        tl.RowHeight,
		"timeline.bar_height":        tl.BarHeight,
		"timeline.placeholder_width": tl.PlaceholderWidth,
		"timeline.dollars_per_ms":    tl.DollarsPerMs,
		"timeline.show_cost":         tl.ShowCost,
		"ui.port":                    DefaultPort,
		"ui.cell_width":              DefaultCellWidth,
		"ui.datastar_url":            "",
	}
}
