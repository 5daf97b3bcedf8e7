package timeline

import "time"

// Scale maps absolute timestamps to horizontal pixel offsets relative to a
// graph's creation time.
type Scale struct {
	Origin  time.Time
	Density float64
}

// NewScale creates a scale anchored at origin.
func NewScale(origin time.Time, density float64) Scale {
	return Scale{Origin: origin, Density: density}
}

// ToPixel returns (ts - origin) in milliseconds times the density.
func (s Scale) ToPixel(ts time.Time) float64 {
	return float64(ts.Sub(s.Origin)) / float64(time.Millisecond) * s.Density
}
