package termux

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseScan(t *testing.T) {
	input := `[
  {
    "bssid": "aa:bb:cc:dd:ee:01",
    "frequency_mhz": 2412,
    "rssi": -48,
    "ssid": "home",
    "timestamp": 1234567,
    "channel_bandwidth_mhz": "20",
    "capabilities": "[WPA2-PSK-CCMP][ESS]"
  },
  {
    "bssid": "aa:bb:cc:dd:ee:02",
    "frequency_mhz": 5180,
    "rssi": -71,
    "ssid": "<unknown ssid>",
    "channel_bandwidth_mhz": "80+80"
  },
  {
    "bssid": "aa:bb:cc:dd:ee:03",
    "frequency_mhz": 5500,
    "rssi": -80,
    "ssid": "",
    "channel_bandwidth_mhz": 160
  }
]`

	got, err := ParseScan([]byte(input), discardLogger)
	require.NoError(t, err)

	want := []survey.ScanEntry{
		{BSSID: "aa:bb:cc:dd:ee:01", FrequencyMHz: 2412, RSSI: -48, SSID: "home", ChannelBandwidthMHz: 20},
		{BSSID: "aa:bb:cc:dd:ee:02", FrequencyMHz: 5180, RSSI: -71, SSID: "", ChannelBandwidthMHz: 80},
		{BSSID: "aa:bb:cc:dd:ee:03", FrequencyMHz: 5500, RSSI: -80, SSID: "", ChannelBandwidthMHz: 160},
	}
	assert.Equal(t, want, got)
}

func TestParseScan_InvalidEntryRejectsSnapshot(t *testing.T) {
	valid := `{"bssid": "aa:bb:cc:dd:ee:01", "frequency_mhz": 2412, "rssi": -48, "ssid": "ok", "channel_bandwidth_mhz": "20"}`

	testCases := []struct {
		name  string
		entry string
	}{
		{"missing bssid", `{"frequency_mhz": 2412, "rssi": -48, "ssid": "no bssid", "channel_bandwidth_mhz": "20"}`},
		{"missing frequency", `{"bssid": "aa:bb:cc:dd:ee:03", "rssi": -48, "channel_bandwidth_mhz": "20"}`},
		{"missing rssi", `{"bssid": "aa:bb:cc:dd:ee:04", "frequency_mhz": 2412, "channel_bandwidth_mhz": "20"}`},
		{"bad bandwidth", `{"bssid": "aa:bb:cc:dd:ee:05", "frequency_mhz": 2412, "rssi": -48, "channel_bandwidth_mhz": "???"}`},
		{"missing bandwidth", `{"bssid": "aa:bb:cc:dd:ee:06", "frequency_mhz": 2412, "rssi": -48}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			got, err := ParseScan([]byte("["+valid+", "+tc.entry+"]"), slog.New(slog.NewTextHandler(&logs, nil)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, provider.ErrNoResult), "expected ErrNoResult, got %v", err)
			assert.Nil(t, got)
			assert.Contains(t, logs.String(), "rejecting scan snapshot")
		})
	}
}

func TestParseScan_FrequencyKeptVerbatim(t *testing.T) {
	got, err := ParseScan([]byte(`[{"bssid": "aa:bb:cc:dd:ee:01", "frequency_mhz": 0, "rssi": -48, "channel_bandwidth_mhz": 20}]`), discardLogger)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].FrequencyMHz)
}

func TestParseScan_Empty(t *testing.T) {
	got, err := ParseScan([]byte(`[]`), discardLogger)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseScan_Rejected(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"api error object", `{"API_ERROR": "Location permission not granted"}`},
		{"garbage", `Command not found.`},
		{"truncated", `[{"bssid": "aa:bb"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScan([]byte(tc.input), discardLogger)
			require.Error(t, err)
			assert.True(t, errors.Is(err, provider.ErrNoResult))
		})
	}
}
