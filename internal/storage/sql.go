package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS wifilist (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp             DATETIME DEFAULT CURRENT_TIMESTAMP,
    bssid                 CHAR(17) NOT NULL,
    frequency_mhz         SMALLINT NOT NULL,
    rssi                  SMALLINT NOT NULL,
    ssid                  TEXT,
    channel_bandwidth_mhz TINYINT  NOT NULL,
    latitude              FLOAT    NOT NULL,
    longitude             FLOAT    NOT NULL,
    accuracy              INT      NOT NULL,
    provider              TINYTEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wifilist_timestamp ON wifilist (timestamp);`

	insertObservationSQL = `
INSERT INTO wifilist (
                      timestamp,
                      bssid,
                      frequency_mhz,
                      rssi,
                      ssid,
                      channel_bandwidth_mhz,
                      latitude,
                      longitude,
                      accuracy,
                      provider)
VALUES `

	// timestamp falls back to the column default when not supplied
	insertObservationValuesSQL = "(COALESCE(?, CURRENT_TIMESTAMP), ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	insertObservationReturningSQL = " RETURNING id"

	selectObservationColumnsSQL = `
SELECT
    id,
    timestamp,
    bssid,
    frequency_mhz,
    rssi,
    ssid,
    channel_bandwidth_mhz,
    latitude,
    longitude,
    accuracy,
    provider
FROM wifilist`

	selectObservationSQL = selectObservationColumnsSQL + `
WHERE
    id = ?`

	selectObservationsSQL = selectObservationColumnsSQL + `
ORDER BY id`

	selectObservationsPageSQL = selectObservationColumnsSQL + `
WHERE
    id > ?
    AND timestamp >= ?
    AND timestamp <= ?
ORDER BY id
LIMIT ?`

	countObservationsSQL = `
SELECT
    COUNT(*)
FROM wifilist`

	selectSummarySQL = `
SELECT
    COUNT(*),
    AVG(latitude),
    AVG(longitude),
    MIN(latitude),
    MAX(latitude),
    MIN(longitude),
    MAX(longitude),
    MIN(timestamp),
    MAX(timestamp)
FROM wifilist`
)
