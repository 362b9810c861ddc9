package sampler

import (
	"context"
	"sync"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

type locationFunc func(ctx context.Context, mode provider.Mode) (*survey.Fix, error)

func (f locationFunc) Fetch(ctx context.Context, mode provider.Mode) (*survey.Fix, error) {
	return f(ctx, mode)
}

type scanFunc func(ctx context.Context) ([]survey.ScanEntry, error)

func (f scanFunc) Fetch(ctx context.Context) ([]survey.ScanEntry, error) {
	return f(ctx)
}

// memoryStore records every batch it receives.
type memoryStore struct {
	mu      sync.Mutex
	batches [][]survey.Observation
	nextID  int64
	err     error
}

func (s *memoryStore) StoreObservations(_ context.Context, observations []survey.Observation) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	ids := make([]int64, len(observations))
	for i := range observations {
		s.nextID++
		ids[i] = s.nextID
	}
	s.batches = append(s.batches, observations)
	return ids, nil
}

func (s *memoryStore) Batches() [][]survey.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]survey.Observation(nil), s.batches...)
}

func fixedLocation(fix survey.Fix) locationFunc {
	return func(context.Context, provider.Mode) (*survey.Fix, error) {
		f := fix
		return &f, nil
	}
}

func fixedScan(entries ...survey.ScanEntry) scanFunc {
	return func(context.Context) ([]survey.ScanEntry, error) {
		return entries, nil
	}
}

func entry(bssid string, rssi int) survey.ScanEntry {
	return survey.ScanEntry{BSSID: bssid, FrequencyMHz: 2412, RSSI: rssi, SSID: "net-" + bssid, ChannelBandwidthMHz: 20}
}
