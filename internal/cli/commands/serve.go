package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/flowline/internal/cli/config"
	"github.com/leapstack-labs/flowline/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Title string
	Open  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve <snapshot|dir>",
		Short: "Serve a live timeline to the browser",
		Long: `Start a local web server that streams the timeline of a flow as its
snapshot file changes. Clicking a stage selects it and scrolling stops live
tracking, exactly as in the terminal view.`,
		Example: `  # Serve on the default port
  flowline serve flow.json

  # Serve on a custom port and open the browser
  flowline serve ./snapshots --port 3000 --open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "Page title (default: the flow id)")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the browser once the server starts")

	return cmd
}

func runServe(cmd *cobra.Command, path string, opts *ServeOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	view, err := newLiveView(liveViewOptions{Path: path, Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	server := ui.NewServer(ui.Config{
		Port:        cfg.UI.Port,
		Frames:      view.frames,
		Controller:  view.session,
		Logger:      logger,
		Title:       opts.Title,
		DatastarURL: cfg.UI.DatastarURL,
	})

	url := fmt.Sprintf("http://localhost:%d", cfg.UI.Port)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", view.source.Path(), url)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
	if opts.Open {
		go openBrowser(url)
	}

	return view.run(cmd.Context(), server.Serve)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
