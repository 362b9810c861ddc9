package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

// DefaultTimeout bounds a single external tool invocation.
const DefaultTimeout = 30 * time.Second

// ErrNoResult is returned when a tool produced no usable data. Callers treat it
// as "nothing this tick" and never as a fatal condition.
var ErrNoResult = errors.New("no result")

// Mode selects how a location fix is requested.
type Mode string

const (
	ModeGPSOnce     Mode = "gps-once"
	ModeGPSUpdates  Mode = "gps-updates"
	ModeNetworkOnce Mode = "network-once"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGPSOnce, ModeGPSUpdates, ModeNetworkOnce:
		return m, nil
	}
	return "", fmt.Errorf("unknown location mode '%s'", s)
}

func (m Mode) String() string {
	return string(m)
}

// LocationProvider returns the current device location.
type LocationProvider interface {
	Fetch(ctx context.Context, mode Mode) (*survey.Fix, error)
}

// ScanProvider returns a snapshot of visible wireless networks.
type ScanProvider interface {
	Fetch(ctx context.Context) ([]survey.ScanEntry, error)
}

// LeadingInt parses the integer prefix of values such as "20", "80+80MHz" or "2437 MHz".
func LeadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, fmt.Errorf("no leading integer in '%s'", s)
	}
	return n, nil
}
