package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toObservationData(o *survey.Observation) *observationData {
	var timestamp sql.NullTime
	if !o.Timestamp.IsZero() {
		timestamp.Time = o.Timestamp.UTC()
		timestamp.Valid = true
	}

	var ssid sql.NullString
	if o.SSID != "" {
		ssid.String = o.SSID
		ssid.Valid = true
	}

	return &observationData{
		ID:                  o.ID,
		Timestamp:           timestamp,
		BSSID:               o.BSSID,
		FrequencyMHz:        int64(o.FrequencyMHz),
		RSSI:                int64(o.RSSI),
		SSID:                ssid,
		ChannelBandwidthMHz: int64(o.ChannelBandwidthMHz),
		Latitude:            o.Latitude,
		Longitude:           o.Longitude,
		Accuracy:            int64(o.Accuracy),
		Provider:            o.Provider,
	}
}

func (d *observationData) toObservation() survey.Observation {
	var timestamp time.Time
	if d.Timestamp.Valid {
		timestamp = d.Timestamp.Time.UTC()
	}

	return survey.Observation{
		ID:                  d.ID,
		Timestamp:           timestamp,
		BSSID:               d.BSSID,
		FrequencyMHz:        int(d.FrequencyMHz),
		RSSI:                int(d.RSSI),
		SSID:                d.SSID.String,
		ChannelBandwidthMHz: int(d.ChannelBandwidthMHz),
		Latitude:            d.Latitude,
		Longitude:           d.Longitude,
		Accuracy:            int(d.Accuracy),
		Provider:            d.Provider,
	}
}

// args returns the insert arguments in column order, without the identifier.
func (d *observationData) args() []any {
	return []any{
		d.Timestamp,
		d.BSSID,
		d.FrequencyMHz,
		d.RSSI,
		d.SSID,
		d.ChannelBandwidthMHz,
		d.Latitude,
		d.Longitude,
		d.Accuracy,
		d.Provider,
	}
}

// scanObservation reads one row produced by selectObservationColumnsSQL.
func scanObservation(row interface{ Scan(...any) error }) (survey.Observation, error) {
	var d observationData
	err := row.Scan(
		&d.ID,
		&d.Timestamp,
		&d.BSSID,
		&d.FrequencyMHz,
		&d.RSSI,
		&d.SSID,
		&d.ChannelBandwidthMHz,
		&d.Latitude,
		&d.Longitude,
		&d.Accuracy,
		&d.Provider,
	)
	if err != nil {
		return survey.Observation{}, err
	}
	return d.toObservation(), nil
}
