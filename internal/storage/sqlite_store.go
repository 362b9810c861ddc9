package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const (
	// SQLite caps bound parameters per statement at 999 on older builds,
	// each row binds 10 of them.
	maxRowsPerStatement = 99

	busyTimeoutMs = 5000
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore creates a new store backed by the Sqlite database file at dbPath.
// Connections are opened lazily.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(ctx context.Context, db *sql.DB, sql string) error {
	_, err := db.ExecContext(ctx, sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", s.dbPath, busyTimeoutMs))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		// single writer
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(context.Background(), db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d", s.dbPath, busyTimeoutMs))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// Init creates the database file and its parent directory when missing and
// applies the schema. Running it against an initialized database is a no-op.
func (s *SqliteStore) Init(ctx context.Context) error {
	if dir := filepath.Dir(s.dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory '%s': %w", dir, err)
		}
	}

	f, err := os.OpenFile(s.dbPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("creating database file '%s': %w", s.dbPath, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing database file '%s': %w", s.dbPath, err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	// getWriteDB applies the schema only once per store instance
	if err = runSQLCommand(ctx, db, initSchemaSQL); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	return nil
}

func (s *SqliteStore) StoreObservations(ctx context.Context, observations []survey.Observation) (ids []int64, err error) {
	if len(observations) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return nil, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	ids = make([]int64, 0, len(observations))
	for chunk := range slices.Chunk(observations, maxRowsPerStatement) {
		var chunkIDs []int64
		if chunkIDs, err = insertObservations(ctx, tx, chunk); err != nil {
			return nil, fmt.Errorf("batch inserting observations: %w", err)
		}
		ids = append(ids, chunkIDs...)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	// RETURNING does not guarantee row order, identifiers grow with insertion order
	slices.Sort(ids)
	return ids, nil
}

func insertObservations(ctx context.Context, tx *sql.Tx, observations []survey.Observation) (ids []int64, err error) {
	values := make([]any, 0, len(observations)*10)

	var sb strings.Builder

	sb.WriteString(insertObservationSQL)

	for i := range observations {
		data := toObservationData(&observations[i])
		values = append(values, data.args()...)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(insertObservationValuesSQL)
	}

	sb.WriteString(insertObservationReturningSQL)

	rows, err := tx.QueryContext(ctx, sb.String(), values...)
	if err != nil {
		return nil, err
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning observation ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) != len(observations) {
		return nil, fmt.Errorf("inserted %d rows, expected %d", len(ids), len(observations))
	}
	return ids, nil
}

func (s *SqliteStore) Observation(ctx context.Context, id int64) (observation *survey.Observation, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectObservationSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	o, err := scanObservation(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		err = fmt.Errorf("scanning observation: %w", err)
		return
	}

	return &o, nil
}

func (s *SqliteStore) Observations(ctx context.Context) (observations []survey.Observation, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectObservationsSQL)
	if err != nil {
		err = fmt.Errorf("querying observations: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	observations = make([]survey.Observation, 0)
	for rows.Next() {
		var o survey.Observation
		if o, err = scanObservation(rows); err != nil {
			err = fmt.Errorf("scanning observation: %w", err)
			return
		}
		observations = append(observations, o)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating observations: %w", err)
	}
	return
}

func (s *SqliteStore) Count(ctx context.Context) (count int64, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	if err = db.QueryRowContext(ctx, countObservationsSQL).Scan(&count); err != nil {
		err = fmt.Errorf("counting observations: %w", err)
	}
	return
}

func (s *SqliteStore) Summary(ctx context.Context) (summary *survey.Summary, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var count int64
	var meanLat, meanLon, minLat, maxLat, minLon, maxLon sql.NullFloat64
	var first, last sqliteDatetime
	err = db.QueryRowContext(ctx, selectSummarySQL).Scan(&count, &meanLat, &meanLon, &minLat, &maxLat, &minLon, &maxLon, &first, &last)
	if err != nil {
		err = fmt.Errorf("scanning summary: %w", err)
		return
	}

	return &survey.Summary{
		Count:         count,
		MeanLatitude:  meanLat.Float64,
		MeanLongitude: meanLon.Float64,
		MinLatitude:   minLat.Float64,
		MaxLatitude:   maxLat.Float64,
		MinLongitude:  minLon.Float64,
		MaxLongitude:  maxLon.Float64,
		First:         first.Datetime,
		Last:          last.Datetime,
	}, nil
}

// Iterate creates a new ObservationReader that pages through stored observations
// in identifier order. The reader must be closed after use.
func (s *SqliteStore) Iterate(ctx context.Context, opts ...ReaderOption) (ObservationReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteObservationReader(ctx, db, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
