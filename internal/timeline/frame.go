package timeline

import "github.com/leapstack-labs/flowline/internal/flow"

// Frame is one committed rendering input: the state, the window and the
// layout computed from the same snapshot. Frames are never modified after
// they are published.
type Frame struct {
	Seq       uint64 `json:"seq"`
	SessionID string `json:"session_id,omitempty"`
	GraphID   string `json:"graph_id"`
	State     State  `json:"state"`
	Window    Window `json:"window"`
	Layout    Layout `json:"layout"`
	// CursorX is the layout position of "now".
	CursorX float64 `json:"cursor_x"`
}

// Compose builds a frame from a snapshot and a view state.
func Compose(g *flow.Graph, st State, cfg Config) Frame {
	f := Frame{
		State:  st,
		Window: Anchor(g, st, cfg),
		Layout: BuildLayout(g, st, cfg),
	}
	if g != nil {
		f.GraphID = g.ID
		f.CursorX = NewScale(g.Created, cfg.Density).ToPixel(st.NowTs)
	}
	return f
}

// Box returns the box of a stage.
func (f Frame) Box(stageID string) (Box, bool) {
	for _, b := range f.Layout.Boxes {
		if b.StageID == stageID {
			return b, true
		}
	}
	return Box{}, false
}
