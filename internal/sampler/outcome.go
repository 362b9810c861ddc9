package sampler

import (
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

// OutcomeKind classifies the result of a single tick.
type OutcomeKind int

const (
	OutcomeNoLocation OutcomeKind = iota + 1
	OutcomeNoScanResults
	OutcomeInserted
	OutcomeStoreFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoLocation:
		return "no_location"
	case OutcomeNoScanResults:
		return "no_scan_results"
	case OutcomeInserted:
		return "inserted"
	case OutcomeStoreFailed:
		return "store_failed"
	}
	return "unknown"
}

// Outcome describes what a tick did.
type Outcome struct {
	TickID   uuid.UUID
	Kind     OutcomeKind
	Count    int         // rows written, only for OutcomeInserted
	Fix      *survey.Fix // nil for OutcomeNoLocation
	Started  time.Time
	Duration time.Duration
	Err      error // scan or store error, if any
}

// Skipped reports whether the tick ended without writing rows.
func (o Outcome) Skipped() bool {
	return o.Kind != OutcomeInserted
}
