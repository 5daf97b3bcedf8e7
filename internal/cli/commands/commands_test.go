package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/flowline/internal/cli/config"
	"github.com/leapstack-labs/flowline/internal/flow"
	"github.com/leapstack-labs/flowline/internal/render"
	"github.com/leapstack-labs/flowline/internal/testutil"
	"github.com/leapstack-labs/flowline/internal/timeline"
)

func TestNewRenderCommand(t *testing.T) {
	cmd := NewRenderCommand()

	assert.Equal(t, "render <snapshot|dir>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// output is a global flag on root, not local
	for _, flag := range []string{"at", "select", "columns"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch <snapshot|dir>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Contains(t, cmd.Long, "esc")
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve <snapshot|dir>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	for _, flag := range []string{"title", "open"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestGetConfig_FallsBackToDefaults(t *testing.T) {
	config.ResetConfig()
	assert.Equal(t, config.Default(), getConfig())
}

func loadSnapshot(t *testing.T, content string) *flow.Graph {
	t.Helper()
	g, err := flow.Decode(strings.NewReader(content), flow.FormatJSON)
	require.NoError(t, err)
	return g
}

func TestFrameAt(t *testing.T) {
	cfg := config.Default()
	wall := time.UnixMilli(5000)

	t.Run("finished flow is shown at its end", func(t *testing.T) {
		g := loadSnapshot(t, testutil.FinishedSnapshot)
		f, err := frameAt(g, cfg, &RenderOptions{}, wall)
		require.NoError(t, err)

		assert.Equal(t, g.Finished, f.State.NowTs)
		assert.False(t, f.State.Live)
		assert.Equal(t, timeline.ModePinned, f.Window.Mode)
	})

	t.Run("running flow is shown at wall time", func(t *testing.T) {
		g := loadSnapshot(t, testutil.RunningSnapshot)
		f, err := frameAt(g, cfg, &RenderOptions{}, wall)
		require.NoError(t, err)

		assert.Equal(t, wall, f.State.NowTs)
		assert.True(t, f.State.Live)
		assert.Equal(t, timeline.ModeTracking, f.Window.Mode)
	})

	t.Run("offset from creation", func(t *testing.T) {
		g := loadSnapshot(t, testutil.RunningSnapshot)
		f, err := frameAt(g, cfg, &RenderOptions{At: 400 * time.Millisecond}, wall)
		require.NoError(t, err)
		assert.Equal(t, time.UnixMilli(1400), f.State.NowTs)
	})

	t.Run("selection", func(t *testing.T) {
		g := loadSnapshot(t, testutil.RunningSnapshot)
		f, err := frameAt(g, cfg, &RenderOptions{Select: "1"}, wall)
		require.NoError(t, err)

		assert.Equal(t, "1", f.State.SelectedStageID)
		assert.False(t, f.State.Live, "selecting a stage stops live tracking")
		b, ok := f.Box("1")
		require.True(t, ok)
		assert.True(t, b.Selected)
	})

	t.Run("unknown stage", func(t *testing.T) {
		g := loadSnapshot(t, testutil.RunningSnapshot)
		_, err := frameAt(g, cfg, &RenderOptions{Select: "9"}, wall)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `stage "9" not found`)
	})
}

func TestResolveOutput(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, config.OutputMarkdown, resolveOutput(config.OutputAuto, &buf))
	assert.Equal(t, config.OutputMarkdown, resolveOutput("", &buf))
	assert.Equal(t, config.OutputSVG, resolveOutput(config.OutputSVG, &buf))
}

func TestWriteFrame(t *testing.T) {
	g := loadSnapshot(t, testutil.FinishedSnapshot)
	f, err := frameAt(g, config.Default(), &RenderOptions{}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		format  string
		wantOut string
	}{
		{config.OutputText, "flow flow-1"},
		{config.OutputTable, "(3 stages, 0 pending)"},
		{config.OutputMarkdown, "2:thenCompose | failed"},
		{config.OutputJSON, `"graph_id": "flow-1"`},
		{config.OutputSVG, `<svg id="timeline"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeFrame(&buf, tt.format, f, render.DefaultTextOptions()))
			assert.Contains(t, buf.String(), tt.wantOut)
		})
	}

	var buf bytes.Buffer
	assert.Error(t, writeFrame(&buf, "xml", f, render.DefaultTextOptions()))
}

func TestRenderCommand_Execute(t *testing.T) {
	config.ResetConfig()
	path := testutil.WriteSnapshot(t, t.TempDir(), "flow.json", testutil.FinishedSnapshot)

	cmd := NewRenderCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{path, "--select", "2"})

	require.NoError(t, cmd.Execute())
	// a buffer is not a terminal, so auto renders markdown
	assert.Contains(t, buf.String(), "| Stage |")
	assert.Contains(t, buf.String(), "2:thenCompose")
}

func TestRenderCommand_Errors(t *testing.T) {
	config.ResetConfig()

	cmd := NewRenderCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"does-not-exist.json"})
	assert.Error(t, cmd.Execute())

	dir := t.TempDir()
	cmd = NewRenderCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{dir})
	assert.Error(t, cmd.Execute(), "empty directory has no snapshot")
}

func TestWatchCommand_RequiresTerminal(t *testing.T) {
	config.ResetConfig()
	path := testutil.WriteSnapshot(t, t.TempDir(), "flow.json", testutil.RunningSnapshot)

	cmd := NewWatchCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestLiveView_FollowsSnapshotUntilDetached(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSnapshot(t, dir, "flow.json", testutil.RunningSnapshot)

	cfg := config.Default()
	cfg.Timeline.TickInterval = 10 * time.Millisecond

	view, err := newLiveView(liveViewOptions{Path: path, Config: cfg, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	frames := view.frames.Subscribe()
	done := make(chan error, 1)
	go func() { done <- view.run(context.Background()) }()

	select {
	case f := <-frames:
		assert.Equal(t, "flow-1", f.GraphID)
		assert.True(t, f.State.Live)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame published")
	}

	// Give the watcher time to register before rewriting.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(testutil.FinishedSnapshot), 0o600))

	assert.Eventually(t, func() bool {
		f, ok := view.frames.Latest()
		if !ok {
			return false
		}
		b, ok := f.Box("2")
		return ok && b.State == flow.StateFailed
	}, 2*time.Second, 10*time.Millisecond)

	view.session.Detach()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after detach")
	}

	// Subscribers are released once the session ends.
	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-frames:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func TestLogSelection(t *testing.T) {
	var buf bytes.Buffer
	logger, err := config.NewLogger(&config.Config{LogLevel: "info"}, &buf)
	require.NoError(t, err)

	g := loadSnapshot(t, testutil.RunningSnapshot)
	stage, ok := g.Stage("2")
	require.True(t, ok)

	onSelect := logSelection(logger)
	onSelect(g, stage)
	onSelect(g, nil)

	out := buf.String()
	assert.Contains(t, out, "stage selected")
	assert.Contains(t, out, "stage=2")
	assert.Contains(t, out, "upstream=\"[0 1]\"")
	assert.Contains(t, out, "selection cleared")
}

func TestFrameJSONRoundTrip(t *testing.T) {
	g := loadSnapshot(t, testutil.RunningSnapshot)
	f, err := frameAt(g, config.Default(), &RenderOptions{Select: "0"}, time.UnixMilli(1400))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, config.OutputJSON, f, render.DefaultTextOptions()))

	var decoded timeline.Frame
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, f.Window.Mode, decoded.Window.Mode)
	assert.Equal(t, "0", decoded.State.SelectedStageID)
}
