package termux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const LocationRuntime = "termux-location"

// locationResponse mirrors the termux-location JSON output. Only the fields
// needed for a fix are decoded.
type locationResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Provider  string   `json:"provider"`
}

// Location fetches fixes with termux-location.
type Location struct {
	runner *provider.Runner
}

var _ provider.LocationProvider = (*Location)(nil)

// NewLocation creates a new termux location provider
func NewLocation(runner *provider.Runner) *Location {
	return &Location{runner: runner}
}

// Args returns the termux-location arguments for the mode
func Args(mode provider.Mode) ([]string, error) {
	switch mode {
	case provider.ModeGPSOnce:
		return []string{"-p", "gps", "-r", "once"}, nil
	case provider.ModeGPSUpdates:
		return []string{"-p", "gps", "-r", "updates"}, nil
	case provider.ModeNetworkOnce:
		return []string{"-p", "network", "-r", "once"}, nil
	}
	return nil, fmt.Errorf("unsupported location mode '%s'", mode)
}

func (l *Location) Fetch(ctx context.Context, mode provider.Mode) (*survey.Fix, error) {
	args, err := Args(mode)
	if err != nil {
		return nil, err
	}

	var out []byte
	if mode == provider.ModeGPSUpdates {
		out, err = l.runner.FirstJSON(ctx, LocationRuntime, args...)
	} else {
		out, err = l.runner.Output(ctx, LocationRuntime, args...)
	}
	if err != nil {
		return nil, err
	}

	return ParseLocation(out)
}

// ParseLocation decodes a termux-location response into a fix.
func ParseLocation(data []byte) (*survey.Fix, error) {
	var resp locationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid location response: %w", provider.ErrNoResult, err)
	}

	if resp.Latitude == nil || resp.Longitude == nil {
		return nil, fmt.Errorf("%w: location response without coordinates", provider.ErrNoResult)
	}

	if resp.Accuracy == nil {
		return nil, fmt.Errorf("%w: location response without accuracy", provider.ErrNoResult)
	}

	fix := survey.Fix{
		Latitude:  *resp.Latitude,
		Longitude: *resp.Longitude,
		Accuracy:  int(math.Round(*resp.Accuracy)),
		Provider:  resp.Provider,
	}
	if err := fix.Validate(); err != nil {
		return nil, errors.Join(provider.ErrNoResult, err)
	}

	return &fix, nil
}
