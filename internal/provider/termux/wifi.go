package termux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const ScanRuntime = "termux-wifi-scaninfo"

// hiddenSSID is what Android reports for networks that do not broadcast a name.
const hiddenSSID = "<unknown ssid>"

type scanResponseEntry struct {
	BSSID               string          `json:"bssid"`
	FrequencyMHz        *int            `json:"frequency_mhz"`
	RSSI                *int            `json:"rssi"`
	SSID                string          `json:"ssid"`
	ChannelBandwidthMHz json.RawMessage `json:"channel_bandwidth_mhz"`
}

// WithScanLogger sets the logger for rejected scan snapshots
func WithScanLogger(logger *slog.Logger) func(w *WiFi) {
	return func(w *WiFi) {
		w.logger = logger
	}
}

// WiFi takes scan snapshots with termux-wifi-scaninfo.
type WiFi struct {
	runner *provider.Runner
	logger *slog.Logger
}

var _ provider.ScanProvider = (*WiFi)(nil)

// NewWiFi creates a new termux scan provider
func NewWiFi(runner *provider.Runner, options ...func(w *WiFi)) *WiFi {
	w := WiFi{
		runner: runner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&w)
	}

	return &w
}

func (w *WiFi) Fetch(ctx context.Context) ([]survey.ScanEntry, error) {
	out, err := w.runner.Output(ctx, ScanRuntime)
	if err != nil {
		return nil, err
	}

	return ParseScan(out, w.logger)
}

// ParseScan decodes a termux-wifi-scaninfo response. An entry missing a
// required field or an object response (the tool reports API errors that
// way) rejects the whole snapshot.
func ParseScan(data []byte, logger *slog.Logger) ([]survey.ScanEntry, error) {
	var resp []scanResponseEntry
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid scan response: %w", provider.ErrNoResult, err)
	}

	entries := make([]survey.ScanEntry, 0, len(resp))
	for i, r := range resp {
		entry, err := r.toScanEntry()
		if err != nil {
			logger.Warn("rejecting scan snapshot", slog.Int("index", i), slog.String("bssid", r.BSSID), slog.Any("error", err))
			return nil, fmt.Errorf("%w: scan entry %d: %w", provider.ErrNoResult, i, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *scanResponseEntry) toScanEntry() (survey.ScanEntry, error) {
	if r.BSSID == "" {
		return survey.ScanEntry{}, fmt.Errorf("missing bssid")
	}
	if r.FrequencyMHz == nil {
		return survey.ScanEntry{}, fmt.Errorf("missing frequency_mhz")
	}
	if r.RSSI == nil {
		return survey.ScanEntry{}, fmt.Errorf("missing rssi")
	}

	bandwidth, err := parseBandwidth(r.ChannelBandwidthMHz)
	if err != nil {
		return survey.ScanEntry{}, err
	}

	ssid := r.SSID
	if ssid == hiddenSSID {
		ssid = ""
	}

	return survey.ScanEntry{
		BSSID:               r.BSSID,
		FrequencyMHz:        *r.FrequencyMHz,
		RSSI:                *r.RSSI,
		SSID:                ssid,
		ChannelBandwidthMHz: bandwidth,
	}, nil
}

// parseBandwidth accepts both a JSON number and a string such as "80+80".
func parseBandwidth(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing channel_bandwidth_mhz")
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid channel_bandwidth_mhz %s", raw)
	}

	n, err := provider.LeadingInt(s)
	if err != nil {
		return 0, fmt.Errorf("invalid channel_bandwidth_mhz: %w", err)
	}
	return n, nil
}
