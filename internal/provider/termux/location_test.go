package termux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

func TestParseLocation(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    *survey.Fix
		wantErr bool
	}{
		{
			name: "gps fix",
			input: `{
  "latitude": 47.3768866,
  "longitude": 8.541694,
  "altitude": 408.0,
  "accuracy": 12.6,
  "vertical_accuracy": 3.0,
  "bearing": 0.0,
  "speed": 0.0,
  "elapsedMs": 42,
  "provider": "gps"
}`,
			want: &survey.Fix{Latitude: 47.3768866, Longitude: 8.541694, Accuracy: 13, Provider: "gps"},
		},
		{
			name:  "network fix at origin",
			input: `{"latitude": 0, "longitude": 0, "accuracy": 1200.4, "provider": "network"}`,
			want:  &survey.Fix{Latitude: 0, Longitude: 0, Accuracy: 1200, Provider: "network"},
		},
		{name: "missing latitude", input: `{"longitude": 8.5, "accuracy": 5, "provider": "gps"}`, wantErr: true},
		{name: "missing accuracy", input: `{"latitude": 47.3, "longitude": 8.5, "provider": "gps"}`, wantErr: true},
		{name: "null accuracy", input: `{"latitude": 47.3, "longitude": 8.5, "accuracy": null, "provider": "gps"}`, wantErr: true},
		{name: "missing provider", input: `{"latitude": 47.3, "longitude": 8.5, "accuracy": 5}`, wantErr: true},
		{name: "latitude out of range", input: `{"latitude": 123, "longitude": 8.5, "accuracy": 5, "provider": "gps"}`, wantErr: true},
		{name: "api error", input: `{"API_ERROR": "Location service unavailable"}`, wantErr: true},
		{name: "array", input: `[]`, wantErr: true},
		{name: "garbage", input: `Error executing command`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLocation([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, provider.ErrNoResult), "expected ErrNoResult, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestArgs(t *testing.T) {
	testCases := []struct {
		mode provider.Mode
		want []string
	}{
		{provider.ModeGPSOnce, []string{"-p", "gps", "-r", "once"}},
		{provider.ModeGPSUpdates, []string{"-p", "gps", "-r", "updates"}},
		{provider.ModeNetworkOnce, []string{"-p", "network", "-r", "once"}},
	}

	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			got, err := Args(tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Args(provider.Mode("passive"))
	assert.Error(t, err)
}
