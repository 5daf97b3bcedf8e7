package config

import (
	"fmt"
	"slices"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("invalid output %q (expected one of %v)", c.Output, OutputFormats)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeline.Density <= 0 {
		return fmt.Errorf("timeline.density must be positive, got %v", c.Timeline.Density)
	}
	if c.Timeline.TickInterval <= 0 {
		return fmt.Errorf("timeline.tick_interval must be positive, got %v", c.Timeline.TickInterval)
	}
	if c.Timeline.ViewportWidth <= 0 {
		return fmt.Errorf("timeline.viewport_width must be positive, got %v", c.Timeline.ViewportWidth)
	}
	if c.UI.Port <= 0 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port must be between 1 and 65535, got %d", c.UI.Port)
	}
	if c.UI.CellWidth <= 0 {
		return fmt.Errorf("ui.cell_width must be positive, got %v", c.UI.CellWidth)
	}
	return nil
}
