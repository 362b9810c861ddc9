package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const defaultReaderBatchSize = 500

var (
	minTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// ObservationReader provides an iterator-based interface for reading observations
// page by page, ordered by identifier.
type ObservationReader interface {
	// Next advances the iterator and returns true if there is another observation
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current observation in the iteration. It stays valid
	// after the iterator advances.
	Current() *survey.Observation

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

// ReaderOption configures a SqliteObservationReader.
type ReaderOption func(*SqliteObservationReader)

// WithBatchSize sets the number of rows fetched per page.
func WithBatchSize(n int) ReaderOption {
	return func(r *SqliteObservationReader) {
		r.batchSize = n
	}
}

// WithStartTime excludes observations captured before t.
func WithStartTime(t time.Time) ReaderOption {
	return func(r *SqliteObservationReader) {
		r.startTime = &t
	}
}

// WithEndTime excludes observations captured after t.
func WithEndTime(t time.Time) ReaderOption {
	return func(r *SqliteObservationReader) {
		r.endTime = &t
	}
}

// WithTimeRange sets both start and end time filters.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *SqliteObservationReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// SqliteObservationReader implements ObservationReader using keyset pagination,
// so no read transaction is held open between pages while the sampler writes.
type SqliteObservationReader struct {
	db *sql.DB

	batchSize int
	startTime *time.Time
	endTime   *time.Time

	lastID  int64
	page    []survey.Observation
	pos     int
	current *survey.Observation
	done    bool
	err     error
}

func newSqliteObservationReader(ctx context.Context, db *sql.DB, opts ...ReaderOption) (*SqliteObservationReader, error) {
	r := &SqliteObservationReader{
		db:        db,
		batchSize: defaultReaderBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteObservationReader) init(_ context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.batchSize <= 0 {
		return fmt.Errorf("invalid batch size: %d", r.batchSize)
	}
	if r.startTime == nil {
		r.startTime = &minTimestamp
	}
	if r.endTime == nil {
		r.endTime = &maxTimestamp
	}
	if r.startTime.After(*r.endTime) {
		return fmt.Errorf("start time %s is after end time %s", r.startTime, r.endTime)
	}
	return nil
}

func (r *SqliteObservationReader) fetchPage(ctx context.Context) (err error) {
	rows, err := r.db.QueryContext(ctx, selectObservationsPageSQL, r.lastID, r.startTime.UTC(), r.endTime.UTC(), r.batchSize)
	if err != nil {
		return fmt.Errorf("querying observations: %w", err)
	}
	defer closeWithError(rows, &err)

	// A fresh page keeps observations handed out by Current valid after paging.
	r.page = make([]survey.Observation, 0, r.batchSize)
	r.pos = 0
	for rows.Next() {
		var o survey.Observation
		if o, err = scanObservation(rows); err != nil {
			return fmt.Errorf("scanning observation: %w", err)
		}
		r.page = append(r.page, o)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	if len(r.page) < r.batchSize {
		r.done = true
	}
	return nil
}

func (r *SqliteObservationReader) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}

	if r.pos >= len(r.page) {
		if r.done {
			r.current = nil
			return false
		}

		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		default:
		}

		if r.err = r.fetchPage(ctx); r.err != nil {
			return false
		}
		if len(r.page) == 0 {
			r.current = nil
			return false
		}
	}

	r.current = &r.page[r.pos]
	r.lastID = r.current.ID
	r.pos++
	return true
}

func (r *SqliteObservationReader) Current() *survey.Observation {
	return r.current
}

func (r *SqliteObservationReader) Error() error {
	return r.err
}

func (r *SqliteObservationReader) Close() error {
	r.page = nil
	r.current = nil
	r.done = true
	return nil
}
