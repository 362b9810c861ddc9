package storage

import (
	"database/sql"
)

// observationData mirrors a wifilist row
type observationData struct {
	ID                  int64
	Timestamp           sql.NullTime
	BSSID               string
	FrequencyMHz        int64
	RSSI                int64
	SSID                sql.NullString
	ChannelBandwidthMHz int64
	Latitude            float64
	Longitude           float64
	Accuracy            int64
	Provider            string
}
