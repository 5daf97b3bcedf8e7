package timeline

import (
	"fmt"

	"github.com/leapstack-labs/flowline/internal/flow"
)

// Mode is the viewport anchoring mode.
type Mode int

// Anchoring modes. Tracking follows "now"; Pinned keeps a fixed window.
const (
	ModeTracking Mode = iota
	ModePinned
)

func (m Mode) String() string {
	if m == ModeTracking {
		return "tracking"
	}
	return "pinned"
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tracking":
		*m = ModeTracking
	case "pinned":
		*m = ModePinned
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// Window is the visible horizontal slice of the layout. Left is the offset
// applied to layout coordinates; a negative Left scrolls content leftwards.
type Window struct {
	Mode  Mode    `json:"mode"`
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// Anchor chooses the window for the current state. While live the window
// slides so that "now" stays at TrackOffset. Otherwise the window starts at
// zero and covers the finished time when the flow is done, or the frozen
// cursor when it is not.
func Anchor(g *flow.Graph, st State, cfg Config) Window {
	if g == nil {
		return Window{Mode: ModePinned, Width: cfg.PinnedMargin}
	}
	scale := NewScale(g.Created, cfg.Density)

	if st.Live && !st.Detached {
		return Window{
			Mode:  ModeTracking,
			Left:  cfg.TrackOffset - scale.ToPixel(st.NowTs),
			Width: cfg.ViewportWidth,
		}
	}

	edge := st.NowTs
	if !g.Finished.IsZero() && !g.Finished.After(st.NowTs) {
		edge = g.Finished
	}
	return Window{
		Mode:  ModePinned,
		Left:  0,
		Width: clamp(scale.ToPixel(edge)) + cfg.PinnedMargin,
	}
}
