package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-survey/internal/provider"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
settings:
  logLevel: DEBUG
storage:
  path: /tmp/survey.db
sampler:
  interval: 15s
  providerTimeout: 10s
location:
  provider: termux
  chain: [network-once, GPS-ONCE]
scan:
  provider: nmcli
metrics:
  listen: ":9101"
`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, config.Settings.LogLevel)
	assert.Equal(t, "/tmp/survey.db", config.Storage.Path)
	assert.Equal(t, 15*time.Second, config.Sampler.Interval.Duration())
	assert.Equal(t, 10*time.Second, config.Sampler.ProviderTimeout.Duration())
	assert.Equal(t, ProviderNmcli, config.Scan.Provider)
	assert.Equal(t, ":9101", config.Metrics.Listen)

	modes, err := config.Location.Modes()
	require.NoError(t, err)
	assert.Equal(t, []provider.Mode{provider.ModeNetworkOnce, provider.ModeGPSOnce}, modes)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeConfig_Defaults(t *testing.T) {
	for _, input := range []string{"", "settings:\n  logLevel: WARN\n"} {
		config, err := decodeConfig(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, defaultStoragePath, config.Storage.Path)
		assert.Equal(t, time.Minute, config.Sampler.Interval.Duration())
		assert.Equal(t, 30*time.Second, config.Sampler.ProviderTimeout.Duration())
		assert.Equal(t, ProviderTermux, config.Location.Provider)
		assert.Equal(t, ProviderTermux, config.Scan.Provider)
		assert.Empty(t, config.Metrics.Listen)

		modes, err := config.Location.Modes()
		require.NoError(t, err)
		assert.Equal(t, []provider.Mode{provider.ModeGPSOnce, provider.ModeGPSUpdates, provider.ModeNetworkOnce}, modes)
	}
}

func TestDecodeConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"unknown location provider", "location:\n  provider: gpsd\n"},
		{"unknown scan provider", "scan:\n  provider: iw\n"},
		{"unknown mode", "location:\n  chain: [gps-once, satellite]\n"},
		{"empty chain", "location:\n  chain: []\n"},
		{"bad duration", "sampler:\n  interval: soon\n"},
		{"interval too short", "sampler:\n  interval: 10ms\n"},
		{"empty storage path", "storage:\n  path: \"\"\n"},
		{"unknown key", "sampler:\n  intervall: 60s\n"},
		{"bad log level", "settings:\n  logLevel: LOUD\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeConfig(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestCreateScanner(t *testing.T) {
	runner := provider.NewRunner()

	_, runtime, err := createScanner(&ScanConfig{Provider: ProviderNmcli}, runner, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "nmcli", runtime)

	_, runtime, err = createScanner(&ScanConfig{Provider: ProviderTermux}, runner, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "termux-wifi-scaninfo", runtime)

	_, _, err = createScanner(&ScanConfig{Provider: "iw"}, runner, slog.Default())
	assert.Error(t, err)

	chain, err := createChain(&LocationConfig{Provider: ProviderTermux, Chain: []string{"gps-once", "network-once"}}, runner)
	require.NoError(t, err)
	assert.Len(t, chain, 2)
}
