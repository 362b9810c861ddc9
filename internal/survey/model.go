package survey

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Fix is a single geolocation sample shared by every observation of a tick.
type Fix struct {
	Latitude  float64 `json:"latitude"`  // Latitude in degrees
	Longitude float64 `json:"longitude"` // Longitude in degrees
	Accuracy  int     `json:"accuracy"`  // Horizontal accuracy in meters
	Provider  string  `json:"provider"`  // Location provider name (e.g., "gps", "network")
}

// Validate reports whether the fix carries usable coordinates and a provider name.
func (f *Fix) Validate() error {
	if f.Provider == "" {
		return errors.New("fix: provider is required")
	}
	if math.IsNaN(f.Latitude) || math.IsInf(f.Latitude, 0) || f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("fix: invalid latitude %v", f.Latitude)
	}
	if math.IsNaN(f.Longitude) || math.IsInf(f.Longitude, 0) || f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("fix: invalid longitude %v", f.Longitude)
	}
	return nil
}

// ScanEntry is one radio network reported by a scan snapshot.
type ScanEntry struct {
	BSSID               string `json:"bssid"`                 // Physical address, reported verbatim
	FrequencyMHz        int    `json:"frequency_mhz"`         // Primary channel frequency in MHz
	RSSI                int    `json:"rssi"`                  // Signal strength as reported by the scan source
	SSID                string `json:"ssid"`                  // Network name, empty for hidden networks
	ChannelBandwidthMHz int    `json:"channel_bandwidth_mhz"` // Channel bandwidth in MHz
}

// Validate checks the presence of the physical address. Values are not normalized;
// parsers check the presence of numeric fields.
func (e *ScanEntry) Validate() error {
	if e.BSSID == "" {
		return errors.New("scan entry: bssid is required")
	}
	return nil
}

// Observation is one persisted row pairing a scan entry with the fix of the same tick.
type Observation struct {
	ID                  int64     `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	BSSID               string    `json:"bssid"`
	FrequencyMHz        int       `json:"frequency_mhz"`
	RSSI                int       `json:"rssi"`
	SSID                string    `json:"ssid"`
	ChannelBandwidthMHz int       `json:"channel_bandwidth_mhz"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	Accuracy            int       `json:"accuracy"`
	Provider            string    `json:"provider"`
}

// NewObservations pairs every scan entry with the shared fix.
// ID is assigned by the store; a zero Timestamp lets the store default it.
func NewObservations(fix Fix, entries []ScanEntry) []Observation {
	observations := make([]Observation, len(entries))
	for i, e := range entries {
		observations[i] = Observation{
			BSSID:               e.BSSID,
			FrequencyMHz:        e.FrequencyMHz,
			RSSI:                e.RSSI,
			SSID:                e.SSID,
			ChannelBandwidthMHz: e.ChannelBandwidthMHz,
			Latitude:            fix.Latitude,
			Longitude:           fix.Longitude,
			Accuracy:            fix.Accuracy,
			Provider:            fix.Provider,
		}
	}
	return observations
}

// Fix returns the location fix the observation was captured with.
func (o *Observation) Fix() Fix {
	return Fix{
		Latitude:  o.Latitude,
		Longitude: o.Longitude,
		Accuracy:  o.Accuracy,
		Provider:  o.Provider,
	}
}

// Summary describes the whole set of stored observations.
type Summary struct {
	Count         int64     `json:"count"`
	MeanLatitude  float64   `json:"meanLatitude"`
	MeanLongitude float64   `json:"meanLongitude"`
	MinLatitude   float64   `json:"minLatitude"`
	MaxLatitude   float64   `json:"maxLatitude"`
	MinLongitude  float64   `json:"minLongitude"`
	MaxLongitude  float64   `json:"maxLongitude"`
	First         time.Time `json:"first"`
	Last          time.Time `json:"last"`
}
