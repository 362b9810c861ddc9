package nmcli

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

func TestSplitEscaped(t *testing.T) {
	testCases := []struct {
		line string
		want []string
	}{
		{`a:b:c`, []string{"a", "b", "c"}},
		{`AA\:BB\:CC:2437 MHz`, []string{"AA:BB:CC", "2437 MHz"}},
		{`x:back\\slash:`, []string{"x", `back\slash`, ""}},
		{`::`, []string{"", "", ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.want, splitEscaped(tc.line))
		})
	}
}

func TestParse(t *testing.T) {
	output := `AA\:BB\:CC\:DD\:EE\:01:2437 MHz:75:Cafe\: Guest:20 MHz
AA\:BB\:CC\:DD\:EE\:02:5180 MHz:42::80 MHz

`

	got, err := Parse([]byte(output), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	want := []survey.ScanEntry{
		{BSSID: "AA:BB:CC:DD:EE:01", FrequencyMHz: 2437, RSSI: 75, SSID: "Cafe: Guest", ChannelBandwidthMHz: 20},
		{BSSID: "AA:BB:CC:DD:EE:02", FrequencyMHz: 5180, RSSI: 42, SSID: "", ChannelBandwidthMHz: 80},
	}
	assert.Equal(t, want, got)
}

func TestParse_InvalidLineRejectsSnapshot(t *testing.T) {
	valid := `AA\:BB\:CC\:DD\:EE\:01:2437 MHz:75:Cafe:20 MHz`

	testCases := []struct {
		name string
		line string
	}{
		{"garbage frequency", `AA\:BB\:CC\:DD\:EE\:03:garbage:42:x:80 MHz`},
		{"missing frequency", `AA\:BB\:CC\:DD\:EE\:03::42:x:80 MHz`},
		{"missing signal", `AA\:BB\:CC\:DD\:EE\:03:5180 MHz::x:80 MHz`},
		{"missing bssid", `:5180 MHz:42:x:80 MHz`},
		{"too many fields", `AA\:BB\:CC\:DD\:EE\:04:5180 MHz:42:too:many:fields`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			got, err := Parse([]byte(valid+"\n"+tc.line+"\n"), slog.New(slog.NewTextHandler(&logs, nil)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, provider.ErrNoResult), "expected ErrNoResult, got %v", err)
			assert.Nil(t, got)
			assert.Contains(t, logs.String(), "error parsing scan line")
		})
	}
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"-t", "-e", "yes", "-f", "BSSID,FREQ,SIGNAL,SSID,BANDWIDTH", "device", "wifi", "list", "--rescan", "auto"}, Args())
}
