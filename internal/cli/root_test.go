package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/flowline/internal/cli/config"
	"github.com/leapstack-labs/flowline/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"version", "render", "watch", "serve", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "log-level", "output", "live", "density", "tick-interval", "show-cost", "port", "cell-width"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowline v"+Version)
}

func TestRenderCommand_JSONOutput(t *testing.T) {
	path := testutil.WriteSnapshot(t, t.TempDir(), "flow.json", testutil.FinishedSnapshot)

	out, err := execute(t, "render", path, "-o", "json", "--density", "0.5")
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &frame))
	assert.Equal(t, "flow-1", frame["graph_id"])

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 0.5, cfg.Timeline.Density)
	assert.Equal(t, config.OutputJSON, cfg.Output)
}

func TestRenderCommand_InvalidOutput(t *testing.T) {
	path := testutil.WriteSnapshot(t, t.TempDir(), "flow.json", testutil.FinishedSnapshot)

	_, err := execute(t, "render", path, "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "flowline")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
