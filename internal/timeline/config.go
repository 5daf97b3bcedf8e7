// Package timeline turns flow snapshots into timeline geometry and keeps the
// view anchored while a flow is still running.
//
// The package is split along the path a snapshot takes: Scale maps
// timestamps to pixels, BuildLayout derives per-stage boxes, Anchor picks the
// visible window, Reduce applies view events to State, and Session ties them
// together with the live clock Driver, publishing one Frame per event.
package timeline

import "time"

// Config holds the fixed geometry parameters of a view instance.
type Config struct {
	// Density is the horizontal scale in pixels per millisecond.
	Density float64
	// TickInterval is the live clock period.
	TickInterval time.Duration
	// ViewportWidth is the window width while tracking.
	ViewportWidth float64
	// TrackOffset is where the "now" cursor sits inside the tracking window.
	TrackOffset float64
	// WaitThreshold is the minimum created->started gap, in pixels, drawn as
	// a waiting connector.
	WaitThreshold float64
	// PinnedMargin pads the pinned window past its last timestamp.
	PinnedMargin float64
	RowHeight    float64
	BarHeight    float64
	// PlaceholderWidth is the lifecycle bar width while the main execution
	// has not ended.
	PlaceholderWidth float64
	// DollarsPerMs prices completed stages when ShowCost is set.
	DollarsPerMs float64
	ShowCost     bool
}

// Default geometry values.
const (
	DefaultDensity          = 0.06
	DefaultTickInterval     = 50 * time.Millisecond
	DefaultViewportWidth    = 1024
	DefaultTrackOffset      = 850
	DefaultWaitThreshold    = 10
	DefaultPinnedMargin     = 10
	DefaultRowHeight        = 30
	DefaultBarHeight        = 20
	DefaultPlaceholderWidth = 1024
	DefaultDollarsPerMs     = 2.08e-9
)

// DefaultConfig returns the standard view parameters.
func DefaultConfig() Config {
	return Config{
		Density:          DefaultDensity,
		TickInterval:     DefaultTickInterval,
		ViewportWidth:    DefaultViewportWidth,
		TrackOffset:      DefaultTrackOffset,
		WaitThreshold:    DefaultWaitThreshold,
		PinnedMargin:     DefaultPinnedMargin,
		RowHeight:        DefaultRowHeight,
		BarHeight:        DefaultBarHeight,
		PlaceholderWidth: DefaultPlaceholderWidth,
		DollarsPerMs:     DefaultDollarsPerMs,
	}
}
