// Package render draws timeline frames: styled terminal text, a stage table,
// SVG for the browser view and the interactive terminal model used by
// `flowline watch`.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

// Styles maps timeline style classes to terminal styles.
type Styles struct {
	Header     lipgloss.Style
	Muted      lipgloss.Style
	Lifecycle  lipgloss.Style
	Connector  lipgloss.Style
	Cursor     lipgloss.Style
	Pending    lipgloss.Style
	Running    lipgloss.Style
	Successful lipgloss.Style
	Failed     lipgloss.Style
	Selected   lipgloss.Style
}

// NewStyles builds styles for the given renderer.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Muted:      r.NewStyle().Faint(true),
		Lifecycle:  r.NewStyle().Foreground(lipgloss.Color("8")),
		Connector:  r.NewStyle().Foreground(lipgloss.Color("8")).Faint(true),
		Cursor:     r.NewStyle().Foreground(lipgloss.Color("11")),
		Pending:    r.NewStyle().Foreground(lipgloss.Color("7")),
		Running:    r.NewStyle().Foreground(lipgloss.Color("14")),
		Successful: r.NewStyle().Foreground(lipgloss.Color("10")),
		Failed:     r.NewStyle().Foreground(lipgloss.Color("9")),
		Selected:   r.NewStyle().Bold(true).Reverse(true),
	}
}

// DefaultStyles detects the color profile of w.
func DefaultStyles(w io.Writer) Styles {
	return NewStyles(lipgloss.NewRenderer(w))
}

// PlainStyles renders without any escape sequences.
func PlainStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.Ascii)
	return NewStyles(r)
}

// For composes the style of a box from its classes.
func (s Styles) For(classes []string) lipgloss.Style {
	style := s.Pending
	selected := false
	for _, c := range classes {
		switch c {
		case timeline.ClassRunning:
			style = s.Running
		case timeline.ClassSuccessful:
			style = s.Successful
		case timeline.ClassFailed:
			style = s.Failed
		case timeline.ClassLifecycle:
			style = s.Lifecycle
		case timeline.ClassSelected:
			selected = true
		}
	}
	if selected {
		style = style.Inherit(s.Selected)
	}
	return style
}
