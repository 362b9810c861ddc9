package sampler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

// DefaultInterval is the wait between the end of one tick and the start of the next.
const DefaultInterval = 60 * time.Second

// ErrAlreadyRunning is returned by Run when the loop is already active.
var ErrAlreadyRunning = errors.New("sampler is already running")

// Step is one attempt of the location fallback chain.
type Step struct {
	Provider provider.LocationProvider
	Mode     provider.Mode
}

// Chain is tried in order until a step yields a fix.
type Chain []Step

// DefaultChain returns GPS single shot, GPS updates, then network single shot.
func DefaultChain(p provider.LocationProvider) Chain {
	return NewChain(p, provider.ModeGPSOnce, provider.ModeGPSUpdates, provider.ModeNetworkOnce)
}

// NewChain builds a chain querying p with each mode in turn.
func NewChain(p provider.LocationProvider, modes ...provider.Mode) Chain {
	chain := make(Chain, len(modes))
	for i, mode := range modes {
		chain[i] = Step{Provider: p, Mode: mode}
	}
	return chain
}

// ObservationWriter persists the observations of one tick atomically.
type ObservationWriter interface {
	StoreObservations(ctx context.Context, observations []survey.Observation) ([]int64, error)
}

// WithLogger sets the logger for the sampler
func WithLogger(logger *slog.Logger) func(s *Sampler) {
	return func(s *Sampler) {
		s.logger = logger
	}
}

// WithInterval sets the wait between ticks
func WithInterval(interval time.Duration) func(s *Sampler) {
	return func(s *Sampler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithObserver registers a function called with the outcome of every tick
func WithObserver(observer func(Outcome)) func(s *Sampler) {
	return func(s *Sampler) {
		s.observers = append(s.observers, observer)
	}
}

// WithMetrics enables Prometheus metrics
func WithMetrics(metrics *Metrics) func(s *Sampler) {
	return func(s *Sampler) {
		s.metrics = metrics
	}
}

// Sampler periodically pairs a location fix with a scan snapshot and stores
// one observation per scanned network. It is the only writer of the store.
type Sampler struct {
	chain   Chain
	scanner provider.ScanProvider
	store   ObservationWriter

	interval  time.Duration
	observers []func(Outcome)
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time

	running atomic.Bool
}

// New creates a new Sampler instance with a discard logger
func New(chain Chain, scanner provider.ScanProvider, store ObservationWriter, options ...func(s *Sampler)) *Sampler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	s := Sampler{
		chain:    chain,
		scanner:  scanner,
		store:    store,
		interval: DefaultInterval,
		logger:   logger,
		now:      time.Now,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Run samples immediately and then once per interval, measured from the end
// of the previous tick, until ctx is cancelled. A tick in progress is never
// interrupted by cancellation; Run returns once it has finished.
func (s *Sampler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	tickCtx := context.WithoutCancel(ctx)

	timer := time.NewTimer(s.interval)
	timer.Stop()
	defer timer.Stop()

	s.logger.Info("sampling started", slog.Duration("interval", s.interval), slog.Int("locationSteps", len(s.chain)))

	for ctx.Err() == nil {
		s.SampleOnce(tickCtx)

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	s.logger.Info("sampling stopped")

	return nil
}

// SampleOnce runs a single tick. Failures are reported through the outcome
// and never returned as errors.
func (s *Sampler) SampleOnce(ctx context.Context) Outcome {
	o := Outcome{
		TickID:  uuid.New(),
		Started: s.now(),
	}

	logger := s.logger.With(slog.String("tick", o.TickID.String()))

	fix := s.locate(ctx, logger)
	if fix == nil {
		o.Kind = OutcomeNoLocation
		return s.finish(o, logger)
	}
	o.Fix = fix

	entries, err := s.scanner.Fetch(ctx)
	if err != nil || len(entries) == 0 {
		o.Kind = OutcomeNoScanResults
		o.Err = err
		return s.finish(o, logger)
	}

	observations := survey.NewObservations(*fix, entries)
	capturedAt := s.now().UTC()
	for i := range observations {
		observations[i].Timestamp = capturedAt
	}

	ids, err := s.store.StoreObservations(ctx, observations)
	if err != nil {
		o.Kind = OutcomeStoreFailed
		o.Err = err
		return s.finish(o, logger)
	}

	o.Kind = OutcomeInserted
	o.Count = len(ids)
	return s.finish(o, logger)
}

// locate walks the chain and returns the first valid fix, or nil.
func (s *Sampler) locate(ctx context.Context, logger *slog.Logger) *survey.Fix {
	for _, step := range s.chain {
		fix, err := step.Provider.Fetch(ctx, step.Mode)
		if err == nil && fix == nil {
			err = provider.ErrNoResult
		}
		if err == nil {
			err = fix.Validate()
		}

		if s.metrics != nil {
			s.metrics.RecordLocationAttempt(step.Mode, err == nil)
		}

		if err == nil {
			return fix
		}

		logger.Debug("location attempt failed", slog.String("mode", step.Mode.String()), slog.Any("error", err))
	}

	return nil
}

func (s *Sampler) finish(o Outcome, logger *slog.Logger) Outcome {
	o.Duration = s.now().Sub(o.Started)

	logger = logger.With(slog.String("outcome", o.Kind.String()), slog.Duration("duration", o.Duration))
	if o.Fix != nil {
		logger = logger.With(slog.String("provider", o.Fix.Provider))
	}

	switch o.Kind {
	case OutcomeInserted:
		logger.Info("observations stored", slog.Int("count", o.Count))
	case OutcomeNoLocation:
		logger.Warn("no location, tick skipped")
	case OutcomeNoScanResults:
		if o.Err != nil {
			logger.Warn("no scan results, tick skipped", slog.Any("error", o.Err))
		} else {
			logger.Warn("no scan results, tick skipped")
		}
	case OutcomeStoreFailed:
		logger.Error("storing observations failed", slog.Any("error", o.Err))
	}

	if s.metrics != nil {
		s.metrics.ObserveOutcome(o)
	}
	for _, observer := range s.observers {
		observer(o)
	}

	return o
}
