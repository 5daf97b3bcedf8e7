package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

var tableHeader = table.Row{"Row", "Stage", "Label", "State", "Left", "Width", "Wait", "Duration", "Deps"}

// Table writes one row per stage box.
func Table(w io.Writer, f timeline.Frame) error {
	if len(f.Layout.Boxes) == 0 {
		_, _ = fmt.Fprintln(w, "(0 stages)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(tableTitle(f))
	t.AppendHeader(tableHeader)

	for _, b := range f.Layout.Boxes {
		t.AppendRow(table.Row{
			b.Row,
			b.StageID,
			b.Label,
			stateCell(b),
			px(b.Left),
			px(b.Width),
			waitCell(b),
			b.Duration,
			strings.TrimPrefix(b.Deps, "Dependencies: Stage "),
		})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d stages, %d pending)\n", len(f.Layout.Boxes), len(f.Layout.Pending))
	return nil
}

// Markdown writes the same rows as Table in GitHub markdown.
func Markdown(w io.Writer, f timeline.Frame) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(tableHeader)
	for _, b := range f.Layout.Boxes {
		t.AppendRow(table.Row{
			b.Row, b.StageID, b.Label, string(b.State), px(b.Left), px(b.Width), waitCell(b), b.Duration,
			strings.TrimPrefix(b.Deps, "Dependencies: Stage "),
		})
	}
	t.RenderMarkdown()
	return nil
}

// JSON writes the frame as indented JSON.
func JSON(w io.Writer, f timeline.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func tableTitle(f timeline.Frame) string {
	title := fmt.Sprintf("%s  %s  window %s+%s", f.GraphID, f.Window.Mode, px(0-f.Window.Left), px(f.Window.Width))
	if f.Layout.Life.Label != "" {
		title = f.Layout.Life.Label + "  " + title
	}
	return title
}

func stateCell(b timeline.Box) string {
	if b.Selected {
		return string(b.State) + " *"
	}
	return string(b.State)
}

func waitCell(b timeline.Box) string {
	if b.Waiting == nil {
		return ""
	}
	return px(b.Waiting.Length)
}

func px(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
