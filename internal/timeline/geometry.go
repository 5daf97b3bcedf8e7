package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/flowline/internal/flow"
)

// connectorLift raises the waiting connector above the row's vertical centre
// so it lines up with the box label.
const connectorLift = 5

// Connector is the horizontal segment between a stage's creation and its
// start (or "now" while the stage is still pending).
type Connector struct {
	Left   float64 `json:"left"`
	Length float64 `json:"length"`
	Top    float64 `json:"top"`
}

// Box is the geometry of one stage row.
type Box struct {
	Row      int        `json:"row"`
	StageID  string     `json:"stage_id"`
	Label    string     `json:"label"`
	Duration string     `json:"duration,omitempty"`
	Cost     string     `json:"cost,omitempty"`
	Deps     string     `json:"deps,omitempty"`
	Tooltip  string     `json:"tooltip"`
	State    flow.State `json:"state"`
	Selected bool       `json:"selected,omitempty"`
	Classes  []string   `json:"classes"`
	CreatedX float64    `json:"created_x"`
	Left     float64    `json:"left"`
	Width    float64    `json:"width"`
	Top      float64    `json:"top"`
	Height   float64    `json:"height"`
	// Marker is set for pending stages drawn as a zero-width tick.
	Marker  bool       `json:"marker,omitempty"`
	Waiting *Connector `json:"waiting,omitempty"`
}

// LifeBar is the graph's own row 0.
type LifeBar struct {
	Label   string  `json:"label"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Running bool    `json:"running"`
}

// Layout is the geometry of a whole snapshot at a given "now".
type Layout struct {
	Life  LifeBar `json:"life"`
	Boxes []Box   `json:"boxes"`
	// Pending lists stages that have not started, in row order.
	Pending []string `json:"pending,omitempty"`
	Height  float64  `json:"height"`
}

// BuildLayout computes the geometry for every stage of g. Stages are trusted
// as delivered: missing or out-of-order timestamps shrink the affected box to
// zero width instead of failing the layout.
func BuildLayout(g *flow.Graph, st State, cfg Config) Layout {
	if g == nil {
		return Layout{}
	}
	scale := NewScale(g.Created, cfg.Density)
	nowX := scale.ToPixel(st.NowTs)

	layout := Layout{
		Life:   buildLifeBar(g, scale, cfg),
		Boxes:  make([]Box, 0, len(g.Nodes)),
		Height: float64(len(g.Nodes)+1) * cfg.RowHeight,
	}

	for i, n := range g.Nodes {
		row := i + 1
		top := float64(row) * cfg.RowHeight
		selected := st.SelectedStageID != "" && st.SelectedStageID == n.StageID
		deps := dependencySummary(n.Dependencies)

		box := Box{
			Row:      row,
			StageID:  n.StageID,
			Label:    n.StageID + ":" + n.Op,
			Deps:     deps,
			Tooltip:  n.Op + ": " + string(n.State) + "\n" + deps,
			State:    n.State,
			Selected: selected,
			Classes:  Classes(n.State, selected),
			CreatedX: scale.ToPixel(n.Created),
			Top:      top,
			Height:   cfg.BarHeight,
		}
		box.Left = box.CreatedX

		switch {
		case n.State == flow.StatePending:
			box.Marker = true
			box.Waiting = &Connector{
				Left:   box.CreatedX,
				Length: clamp(nowX - box.CreatedX),
				Top:    connectorTop(top, cfg),
			}
			layout.Pending = append(layout.Pending, n.StageID)

		case n.Started.IsZero():
			// not pending but never started: nothing to measure

		default:
			startX := scale.ToPixel(n.Started)
			box.Left = startX

			switch {
			case !n.Completed.IsZero():
				box.Width = clamp(scale.ToPixel(n.Completed) - startX)
			case n.State == flow.StateRunning:
				box.Width = clamp(nowX - startX)
			}

			if d, ok := n.Duration(); ok {
				box.Duration = formatDuration(d)
				if cfg.ShowCost {
					box.Cost = fmt.Sprintf("$%.6f", float64(d)/float64(time.Millisecond)*cfg.DollarsPerMs)
				}
			}

			if gap := startX - box.CreatedX; gap > cfg.WaitThreshold {
				box.Waiting = &Connector{
					Left:   box.CreatedX,
					Length: gap,
					Top:    connectorTop(top, cfg),
				}
			}
		}

		layout.Boxes = append(layout.Boxes, box)
	}

	return layout
}

func buildLifeBar(g *flow.Graph, scale Scale, cfg Config) LifeBar {
	bar := LifeBar{Label: g.FunctionID, Height: cfg.BarHeight}
	if g.MainDone() {
		bar.Width = clamp(scale.ToPixel(g.MainEnded))
		return bar
	}
	bar.Width = cfg.PlaceholderWidth
	bar.Running = true
	return bar
}

func connectorTop(rowTop float64, cfg Config) float64 {
	return rowTop + cfg.RowHeight/2 - connectorLift
}

func dependencySummary(deps []string) string {
	if len(deps) == 0 {
		return ""
	}
	return "Dependencies: Stage " + strings.Join(deps, ",")
}

// formatDuration renders milliseconds below one second and tenths of a
// second above.
func formatDuration(d time.Duration) string {
	msec := float64(d) / float64(time.Millisecond)
	if msec < 1000 {
		return fmt.Sprintf("%.0fms", msec)
	}
	return fmt.Sprintf("%.1fs", msec/1000)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
