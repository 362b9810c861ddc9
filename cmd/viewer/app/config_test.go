package app

import (
	"flag"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-survey/internal/heatmap"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfig_Defaults(t *testing.T) {
	config, err := parseConfig(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, defaultDBPath, config.DBPath)
	assert.Equal(t, ":5000", config.Listen)
	assert.Equal(t, slog.LevelInfo, config.LogLevel)
	assert.Equal(t, heatmap.EnhancedTheme, config.Theme)
	assert.Equal(t, 30*time.Second, config.CacheTTL)
}

func TestParseConfig(t *testing.T) {
	config, err := parseConfig(newFlagSet(), []string{
		"-db", "/srv/survey.db",
		"-listen", "127.0.0.1:8080",
		"-log-level", "debug",
		"-theme", "thermal",
		"-cache-ttl", "0",
	})
	require.NoError(t, err)

	assert.Equal(t, "/srv/survey.db", config.DBPath)
	assert.Equal(t, "127.0.0.1:8080", config.Listen)
	assert.Equal(t, slog.LevelDebug, config.LogLevel)
	assert.Equal(t, heatmap.ThermalTheme, config.Theme)
	assert.Zero(t, config.CacheTTL)
}

func TestParseConfig_Invalid(t *testing.T) {
	testCases := [][]string{
		{"-db", ""},
		{"-listen", ""},
		{"-log-level", "chatty"},
		{"-theme", "rainbow"},
		{"-cache-ttl", "-1s"},
		{"-unknown"},
	}

	for _, args := range testCases {
		_, err := parseConfig(newFlagSet(), args)
		assert.Error(t, err, "args %v", args)
	}
}
