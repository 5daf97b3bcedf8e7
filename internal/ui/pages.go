package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/flowline/internal/render"
	"github.com/leapstack-labs/flowline/internal/timeline"
	"github.com/leapstack-labs/flowline/internal/ui/resources"
)

// TimelinePage renders the full page with the current frame inline.
func TimelinePage(title, datastarURL string, f timeline.Frame) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := json.Marshal(signalsFor(f))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s - flowline</title>
<script type="module" src="%s"></script>
<link rel="stylesheet" href="%s">
</head>
<body data-signals="%s" data-init="@get('/updates')" data-on:keydown__window="evt.key === 'Escape' && @delete('/select')">
<header>%s <span class="live" data-show="$live">live</span> <span data-text="$mode"></span></header>
`,
			templ.EscapeString(title), templ.EscapeString(datastarURL), resources.StaticPath(resources.Stylesheet),
			templ.EscapeString(string(signals)),
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := StagePanel(f).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<div id="canvas" data-on:click="evt.target.closest('[data-stage]') && @post('/select/' + evt.target.closest('[data-stage]').dataset.stage)" data-on:wheel__throttle.500ms="@post('/scroll')">`+"\n"); err != nil {
			return err
		}
		if err := Canvas(f).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n</div>\n</body>\n</html>\n")
		return err
	})
}

// Canvas is the SVG drawing of a frame.
func Canvas(f timeline.Frame) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render.SVG(w, f)
	})
}

// StagePanel describes the selected stage, or is empty.
func StagePanel(f timeline.Frame) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		box, ok := f.Box(f.State.SelectedStageID)
		if !ok {
			_, err := io.WriteString(w, `<div id="stage-panel"></div>`)
			return err
		}
		_, err := fmt.Fprintf(w, `<div id="stage-panel" class="%s"><strong>%s</strong> %s %s %s<div>%s</div></div>`,
			templ.EscapeString(string(box.State)),
			templ.EscapeString(box.Label),
			templ.EscapeString(string(box.State)),
			templ.EscapeString(box.Duration),
			templ.EscapeString(box.Cost),
			templ.EscapeString(box.Deps))
		return err
	})
}
