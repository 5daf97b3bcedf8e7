package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BoolP("verbose", "v", false, "")
	flags.String("log-level", "", "")
	flags.StringP("output", "o", "", "")
	flags.Bool("live", true, "")
	flags.Float64("density", 0, "")
	flags.Duration("tick-interval", 0, "")
	flags.Bool("show-cost", false, "")
	flags.Int("port", 0, "")
	flags.Float64("cell-width", 0, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, OutputAuto, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.Live)
	assert.Equal(t, DefaultPort, cfg.UI.Port)
	assert.Equal(t, timeline.DefaultConfig(), cfg.Timeline.Timeline())
	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, Default(), cfg)
	assert.Same(t, cfg, GetCurrentConfig())

	ResetConfig()
	assert.Nil(t, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
output: json
live: false
timeline:
  density: 0.5
  tick_interval: 20ms
  show_cost: true
ui:
  port: 9000
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.False(t, cfg.Live)
	assert.Equal(t, 0.5, cfg.Timeline.Density)
	assert.Equal(t, 20*time.Millisecond, cfg.Timeline.TickInterval)
	assert.True(t, cfg.Timeline.ShowCost)
	assert.Equal(t, 9000, cfg.UI.Port)
	// untouched keys keep their defaults
	assert.Equal(t, float64(timeline.DefaultTrackOffset), cfg.Timeline.TrackOffset)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
output: json
timeline:
  density: 0.5
  tick_interval: 20ms
ui:
  port: 9000
`)
	t.Setenv("FLOWLINE_TIMELINE_DENSITY", "0.25")
	t.Setenv("FLOWLINE_UI_PORT", "9100")
	t.Setenv("FLOWLINE_OUTPUT", "table")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--port", "9200", "--tick-interval", "75ms"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, OutputTable, cfg.Output, "env overrides file")
	assert.Equal(t, 0.25, cfg.Timeline.Density, "env overrides file")
	assert.Equal(t, 9200, cfg.UI.Port, "flag overrides env")
	assert.Equal(t, 75*time.Millisecond, cfg.Timeline.TickInterval, "flag overrides file")
}

func TestLoadConfig_UnchangedFlagsDoNotOverride(t *testing.T) {
	path := writeConfig(t, "live: false\n")
	flags := testFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.False(t, cfg.Live)
}

func TestLoadConfig_VerboseImpliesDebug(t *testing.T) {
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"-v"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	path := writeConfig(t, "timeline:\n  density: -1\n")
	_, err = LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeline.density")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"FLOWLINE_OUTPUT":                 "output",
		"FLOWLINE_LOG_LEVEL":              "log_level",
		"FLOWLINE_TIMELINE_TICK_INTERVAL": "timeline.tick_interval",
		"FLOWLINE_UI_CELL_WIDTH":          "ui.cell_width",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad output", func(c *Config) { c.Output = "xml" }, "invalid output"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log_level"},
		{"zero density", func(c *Config) { c.Timeline.Density = 0 }, "timeline.density"},
		{"zero interval", func(c *Config) { c.Timeline.TickInterval = 0 }, "timeline.tick_interval"},
		{"zero viewport", func(c *Config) { c.Timeline.ViewportWidth = 0 }, "timeline.viewport_width"},
		{"port out of range", func(c *Config) { c.UI.Port = 70000 }, "ui.port"},
		{"zero cell width", func(c *Config) { c.UI.CellWidth = 0 }, "ui.cell_width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&Config{LogLevel: "info"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "stage", "1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "stage=1")

	_, err = NewLogger(&Config{LogLevel: "nope"}, &buf)
	assert.Error(t, err)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Same(t, logger, ctx.Value(LoggerKey()))
}
