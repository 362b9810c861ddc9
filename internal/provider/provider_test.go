package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "gps-once", want: ModeGPSOnce},
		{in: "GPS-Updates", want: ModeGPSUpdates},
		{in: " network-once ", want: ModeNetworkOnce},
		{in: "network-updates", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLeadingInt(t *testing.T) {
	testCases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "20", want: 20},
		{in: "80+80", want: 80},
		{in: "160MHz", want: 160},
		{in: "2437 MHz", want: 2437},
		{in: " 40 ", want: 40},
		{in: "-67", want: -67},
		{in: "???", wantErr: true},
		{in: "", wantErr: true},
		{in: "MHz", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := LeadingInt(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
