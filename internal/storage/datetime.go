package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// sqliteDatetime scans aggregate results such as MIN(timestamp). SQLite loses
// the column declaration on aggregates, so the driver hands back plain text.
type sqliteDatetime struct {
	Datetime time.Time
	Valid    bool
}

func (d *sqliteDatetime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		d.Datetime, d.Valid = time.Time{}, false
		return nil

	case time.Time:
		d.Datetime, d.Valid = v.UTC(), true
		return nil

	case []byte:
		return d.parse(string(v))

	case string:
		return d.parse(v)
	}

	return fmt.Errorf("unsupported datetime type %T", value)
}

func (d *sqliteDatetime) parse(s string) error {
	s = strings.TrimSuffix(s, "Z")
	for _, format := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			d.Datetime, d.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized datetime %q", s)
}
