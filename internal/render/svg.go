package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

// SVGElementID is the id of the root element; the browser view replaces it
// on every frame.
const SVGElementID = "timeline"

// SVG writes the frame as an inline SVG document. Layout coordinates are
// shifted by the window offset so the viewBox always starts at zero.
func SVG(w io.Writer, f timeline.Frame) error {
	_, err := io.WriteString(w, SVGString(f))
	return err
}

// SVGString renders the frame to a string.
func SVGString(f timeline.Frame) string {
	var b strings.Builder
	width := f.Window.Width
	height := f.Layout.Height
	shift := f.Window.Left

	fmt.Fprintf(&b, `<svg id="%s" xmlns="http://www.w3.org/2000/svg" class="timeline %s" width="%s" height="%s" viewBox="0 0 %s %s" data-seq="%d">`,
		SVGElementID, f.Window.Mode, num(width), num(height), num(width), num(height), f.Seq)
	b.WriteByte('\n')

	b.WriteString(`<g class="` + timeline.ClassLifecycle + `">`)
	fmt.Fprintf(&b, `<rect x="%s" y="0" width="%s" height="%s"/>`,
		num(shift), num(f.Layout.Life.Width), num(f.Layout.Life.Height))
	fmt.Fprintf(&b, `<text x="%s" y="%s">%s</text>`,
		num(shift+4), num(f.Layout.Life.Height-6), html.EscapeString(f.Layout.Life.Label))
	b.WriteString("</g>\n")

	for _, box := range f.Layout.Boxes {
		fmt.Fprintf(&b, `<g class="%s" data-stage="%s">`,
			strings.Join(box.Classes, " "), html.EscapeString(box.StageID))
		fmt.Fprintf(&b, `<title>%s</title>`, html.EscapeString(box.Tooltip))
		if box.Waiting != nil {
			fmt.Fprintf(&b, `<line class="waiting" x1="%s" x2="%s" y1="%s" y2="%s"/>`,
				num(box.Waiting.Left+shift), num(box.Waiting.Left+box.Waiting.Length+shift),
				num(box.Waiting.Top), num(box.Waiting.Top))
		}
		if box.Marker {
			fmt.Fprintf(&b, `<line class="marker" x1="%s" x2="%s" y1="%s" y2="%s"/>`,
				num(box.CreatedX+shift), num(box.CreatedX+shift), num(box.Top), num(box.Top+box.Height))
		} else {
			fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s"/>`,
				num(box.Left+shift), num(box.Top), num(box.Width), num(box.Height))
		}
		label := box.Label
		if box.Duration != "" {
			label += " " + box.Duration
		}
		if box.Cost != "" {
			label += " " + box.Cost
		}
		fmt.Fprintf(&b, `<text x="%s" y="%s">%s</text>`,
			num(box.Left+box.Width+shift+4), num(box.Top+box.Height-6), html.EscapeString(label))
		b.WriteString("</g>\n")
	}

	if f.State.Live {
		fmt.Fprintf(&b, `<line class="cursor" x1="%s" x2="%s" y1="0" y2="%s"/>`,
			num(f.CursorX+shift), num(f.CursorX+shift), num(height))
		b.WriteByte('\n')
	}

	b.WriteString("</svg>")
	return b.String()
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
