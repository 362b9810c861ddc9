package sampler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/wifi-survey/internal/provider"
)

const (
	locationResultFix      = "fix"
	locationResultNoResult = "no_result"
)

// Metrics contains Prometheus metrics for the sampling loop
type Metrics struct {
	ticksTotal            *prometheus.CounterVec
	observationsInserted  prometheus.Counter
	locationAttemptsTotal *prometheus.CounterVec
	tickDuration          prometheus.Histogram

	collectors []prometheus.Collector
}

// NewMetrics creates and registers new sampler metrics
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifisurvey_sampler_ticks_total",
			Help: "Total number of sampling ticks by outcome",
		},
		[]string{"outcome"}, // outcome: no_location, no_scan_results, inserted, store_failed
	)

	m.observationsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wifisurvey_sampler_observations_inserted_total",
			Help: "Total number of observations written to the store",
		},
	)

	m.locationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifisurvey_sampler_location_attempts_total",
			Help: "Total number of location requests by mode and result",
		},
		[]string{"mode", "result"},
	)

	m.tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wifisurvey_sampler_tick_duration_seconds",
			Help:    "Time taken by a sampling tick",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
	)

	m.collectors = []prometheus.Collector{
		m.ticksTotal,
		m.observationsInserted,
		m.locationAttemptsTotal,
		m.tickDuration,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// ObserveOutcome records a finished tick
func (m *Metrics) ObserveOutcome(o Outcome) {
	m.ticksTotal.WithLabelValues(o.Kind.String()).Inc()
	m.tickDuration.Observe(o.Duration.Seconds())
	if o.Kind == OutcomeInserted {
		m.observationsInserted.Add(float64(o.Count))
	}
}

// RecordLocationAttempt records one location provider call
func (m *Metrics) RecordLocationAttempt(mode provider.Mode, ok bool) {
	result := locationResultNoResult
	if ok {
		result = locationResultFix
	}
	m.locationAttemptsTotal.WithLabelValues(mode.String(), result).Inc()
}
