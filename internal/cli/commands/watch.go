package commands

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/flowline/internal/cli/config"
	"github.com/leapstack-labs/flowline/internal/render"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <snapshot|dir>",
		Short: "Follow a running flow in the terminal",
		Long: `Open an interactive timeline that follows a snapshot file as it is
rewritten. While the flow runs the view scrolls with real time; selecting a
stage or scrolling stops the tracking.

Keys:
  j/k, up/down   select the next or previous stage
  h/l, ←/→       scroll back or forward
  esc            clear the selection
  q              quit`,
		Example: `  # Follow the newest snapshot in a directory
  flowline watch ./snapshots`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0])
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command, path string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		return errors.New("watch needs an interactive terminal; use render instead")
	}

	view, err := newLiveView(liveViewOptions{Path: path, Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	model := render.NewModel(view.session, view.frames.Subscribe(), render.DefaultStyles(out), textOptions(cfg, out))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()), tea.WithOutput(out))

	return view.run(cmd.Context(), func(ctx context.Context) error {
		// The model detaches the session on quit, which ends the run.
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			view.session.Detach()
			return fmt.Errorf("terminal view failed: %w", err)
		}
		<-ctx.Done()
		return nil
	})
}
