// Package commands implements the flowline subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/leapstack-labs/flowline/internal/cli/config"
	"github.com/leapstack-labs/flowline/internal/feed"
	"github.com/leapstack-labs/flowline/internal/flow"
	"github.com/leapstack-labs/flowline/internal/render"
	"github.com/leapstack-labs/flowline/internal/timeline"
	"github.com/leapstack-labs/flowline/internal/ui/notifier"
)

// getConfig returns the loaded configuration, or the defaults when the
// command runs outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalColumns returns the width of w, or 0 when it is not a terminal.
func terminalColumns(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// textOptions sizes the drawing area to the terminal when there is one.
func textOptions(cfg *config.Config, w io.Writer) render.TextOptions {
	opts := render.DefaultTextOptions()
	opts.CellWidth = cfg.UI.CellWidth
	if cols := terminalColumns(w) - opts.LabelWidth - 1; cols > 10 {
		opts.Columns = cols
	} else {
		opts.Columns = int(cfg.Timeline.ViewportWidth / cfg.UI.CellWidth)
	}
	return opts
}

// logSelection reports a selected stage together with everything upstream
// of it, which is what a detail loader needs to fetch.
func logSelection(logger *slog.Logger) func(*flow.Graph, *flow.Stage) {
	return func(g *flow.Graph, stage *flow.Stage) {
		if stage == nil {
			logger.Info("selection cleared")
			return
		}
		logger.Info("stage selected",
			"stage", stage.StageID,
			"op", stage.Op,
			"state", stage.State,
			"call_id", stage.CallID,
			"upstream", g.TransitiveDeps(stage.StageID),
		)
	}
}

// liveView follows one snapshot file with one session and publishes every
// frame to subscribers.
type liveView struct {
	source  *feed.FileSource
	session *timeline.Session
	frames  *notifier.Notifier[timeline.Frame]
}

type liveViewOptions struct {
	Path   string
	Config *config.Config
	Logger *slog.Logger
	Clock  timeline.Clock
}

func newLiveView(opts liveViewOptions) (*liveView, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	src, err := feed.NewFileSource(opts.Path, logger)
	if err != nil {
		return nil, err
	}
	g, err := src.Load()
	if err != nil {
		return nil, err
	}
	for _, issue := range flow.Validate(g) {
		logger.Warn("snapshot issue", "graph", g.ID, "issue", issue.String())
	}

	frames := notifier.New[timeline.Frame]()
	session := timeline.NewSession(g, timeline.Options{
		Config:         opts.Config.Timeline.Timeline(),
		Live:           opts.Config.Live && !g.MainDone(),
		Clock:          opts.Clock,
		Logger:         logger,
		OnFrame:        frames.Publish,
		OnNodeSelected: logSelection(logger),
	})
	logger.Info("following snapshot", "file", src.Path(), "graph", g.ID, "session", session.ID())

	return &liveView{source: src, session: session, frames: frames}, nil
}

// run drives the feed, the session and any extra workers until ctx is
// cancelled or the session is detached. Subscribers see their channel
// closed once the session stops.
func (v *liveView) run(ctx context.Context, workers ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer cancel()
		defer v.frames.Close()
		return v.session.Run(egctx)
	})

	eg.Go(func() error {
		return v.source.Run(egctx, v.session)
	})

	for _, w := range workers {
		eg.Go(func() error {
			return w(egctx)
		})
	}

	return eg.Wait()
}
