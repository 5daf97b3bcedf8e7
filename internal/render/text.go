package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

// Glyphs used by the text renderer.
const (
	glyphBox       = '█'
	glyphThin      = '▏'
	glyphMarker    = '│'
	glyphConnector = '─'
	glyphLife      = '═'
	glyphCursor    = '┊'
)

// TextOptions controls how layout pixels map to terminal cells.
type TextOptions struct {
	// Columns is the width of the drawing area in cells.
	Columns int
	// CellWidth is the number of layout pixels per cell.
	CellWidth float64
	// Pan shifts a pinned window to the right, in pixels.
	Pan float64
	// LabelWidth reserves room for labels right of the drawing area.
	LabelWidth int
}

// DefaultTextOptions fits the default 1024px viewport into 128 cells.
func DefaultTextOptions() TextOptions {
	return TextOptions{Columns: 128, CellWidth: 8, LabelWidth: 40}
}

type cellKind uint8

const (
	cellBlank cellKind = iota
	cellConnector
	cellBox
	cellCursor
)

// canvas is one row of cells.
type canvas struct {
	runes []rune
	kinds []cellKind
	opts  TextOptions
	shift float64
}

func newCanvas(f timeline.Frame, opts TextOptions) *canvas {
	c := &canvas{
		runes: make([]rune, opts.Columns),
		kinds: make([]cellKind, opts.Columns),
		opts:  opts,
		shift: f.Window.Left - opts.Pan,
	}
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

// col maps a layout x to a cell index, which may be off screen.
func (c *canvas) col(x float64) int {
	return int(math.Floor((x + c.shift) / c.opts.CellWidth))
}

func (c *canvas) fill(from, to float64, r rune, kind cellKind) {
	start, end := c.col(from), c.col(to)
	if end <= start {
		end = start + 1
	}
	for i := max(start, 0); i < end && i < len(c.runes); i++ {
		c.runes[i] = r
		c.kinds[i] = kind
	}
}

func (c *canvas) set(x float64, r rune, kind cellKind) {
	if i := c.col(x); i >= 0 && i < len(c.runes) {
		c.runes[i] = r
		c.kinds[i] = kind
	}
}

func (c *canvas) render(box, connector, cursor lipgloss.Style) string {
	var b strings.Builder
	for i := 0; i < len(c.runes); {
		j := i
		for j < len(c.runes) && c.kinds[j] == c.kinds[i] {
			j++
		}
		run := string(c.runes[i:j])
		switch c.kinds[i] {
		case cellBox:
			run = box.Render(run)
		case cellConnector:
			run = connector.Render(run)
		case cellCursor:
			run = cursor.Render(run)
		}
		b.WriteString(run)
		i = j
	}
	return b.String()
}

// Text renders a frame as one line per row, lifecycle bar first.
func Text(f timeline.Frame, styles Styles, opts TextOptions) string {
	if opts.Columns <= 0 || opts.CellWidth <= 0 {
		opts = DefaultTextOptions()
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render(header(f)))
	b.WriteByte('\n')

	life := newCanvas(f, opts)
	life.fill(0, f.Layout.Life.Width, glyphLife, cellBox)
	lifeLabel := f.Layout.Life.Label
	if f.Layout.Life.Running {
		lifeLabel += " (running)"
	}
	b.WriteString(life.render(styles.Lifecycle, styles.Connector, styles.Cursor))
	b.WriteString(" " + styles.Lifecycle.Render(truncate(lifeLabel, opts.LabelWidth)))
	b.WriteByte('\n')

	for _, box := range f.Layout.Boxes {
		row := newCanvas(f, opts)
		if box.Waiting != nil {
			row.fill(box.Waiting.Left, box.Waiting.Left+box.Waiting.Length, glyphConnector, cellConnector)
		}
		switch {
		case box.Marker:
			row.set(box.CreatedX, glyphMarker, cellBox)
		case box.Width > 0:
			row.fill(box.Left, box.Left+box.Width, glyphBox, cellBox)
		default:
			row.set(box.Left, glyphThin, cellBox)
		}
		if f.State.Live {
			if i := row.col(f.CursorX); i >= 0 && i < len(row.runes) && row.kinds[i] == cellBlank {
				row.set(f.CursorX, glyphCursor, cellCursor)
			}
		}

		style := styles.For(box.Classes)
		b.WriteString(row.render(style, styles.Connector, styles.Cursor))
		b.WriteString(" " + style.Render(truncate(boxLabel(box), opts.LabelWidth)))
		b.WriteByte('\n')
	}

	if len(f.Layout.Pending) > 0 {
		b.WriteString(styles.Muted.Render("pending: " + strings.Join(f.Layout.Pending, ", ")))
		b.WriteByte('\n')
	}

	return b.String()
}

func header(f timeline.Frame) string {
	h := fmt.Sprintf("flow %s  [%s]", f.GraphID, f.Window.Mode)
	if f.State.SelectedStageID != "" {
		h += "  stage " + f.State.SelectedStageID
	}
	return h
}

func boxLabel(b timeline.Box) string {
	parts := []string{b.Label}
	if b.Duration != "" {
		parts = append(parts, b.Duration)
	}
	if b.Cost != "" {
		parts = append(parts, b.Cost)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if n <= 0 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return string(r[:min(n, len(r))])
	}
	return string(r[:n-1]) + "…"
}
