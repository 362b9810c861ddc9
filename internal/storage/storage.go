package storage

import (
	"context"
	"errors"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

// ErrNotFound is returned when the requested observation does not exist.
var ErrNotFound = errors.New("observation not found")

// Store provides an interface for managing wireless survey data storage operations.
// The sampler is the only writer; any number of readers may run concurrently
// from other processes. All operations that write to the database are atomic.
type Store interface {
	// Init ensures the backing file and the observations table exist.
	// It is idempotent and never drops existing data.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//
	// Returns:
	//   - error: If the file or the schema cannot be created
	Init(ctx context.Context) error

	// StoreObservations saves all observations of a single sampling tick.
	// Either every row becomes visible or none does.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - observations: Rows to insert; ID is ignored and assigned by the store
	//
	// Returns:
	//   - ids: Store-assigned identifiers, in insertion order
	//   - error: If storage fails or context is cancelled
	StoreObservations(ctx context.Context, observations []survey.Observation) (ids []int64, err error)

	// Observation retrieves a single observation by its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Store-assigned identifier
	//
	// Returns:
	//   - observation: Pointer to the observation
	//   - error: ErrNotFound if there is no such identifier
	Observation(ctx context.Context, id int64) (observation *survey.Observation, err error)

	// Observations returns every stored observation ordered by identifier.
	Observations(ctx context.Context) (observations []survey.Observation, err error)

	// Iterate pages through stored observations in identifier order without
	// loading them all at once. The reader must be closed after use.
	Iterate(ctx context.Context, opts ...ReaderOption) (ObservationReader, error)

	// Count returns the number of stored observations.
	Count(ctx context.Context) (int64, error)

	// Summary returns the observation count, mean position, bounding box and time span.
	Summary(ctx context.Context) (*survey.Summary, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
