package nmcli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const (
	Runtime = "nmcli"

	numFields = 5
)

// Args returns the nmcli arguments for a terse, escaped scan listing
func Args() []string {
	return []string{
		"-t", "-e", "yes",
		"-f", "BSSID,FREQ,SIGNAL,SSID,BANDWIDTH",
		"device", "wifi", "list",
		"--rescan", "auto",
	}
}

// WithLogger sets the logger for skipped scan lines
func WithLogger(logger *slog.Logger) func(s *Scanner) {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// Scanner takes scan snapshots with NetworkManager's nmcli. SIGNAL is a
// 0-100 quality value, not dBm; it is stored as reported.
type Scanner struct {
	runner *provider.Runner
	logger *slog.Logger
}

var _ provider.ScanProvider = (*Scanner)(nil)

// New creates a new nmcli scan provider
func New(runner *provider.Runner, options ...func(s *Scanner)) *Scanner {
	s := Scanner{
		runner: runner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func (s *Scanner) Fetch(ctx context.Context) ([]survey.ScanEntry, error) {
	out, err := s.runner.Output(ctx, Runtime, Args()...)
	if err != nil {
		return nil, err
	}

	return Parse(out, s.logger)
}

// Parse decodes terse nmcli output, one network per line. A line that does
// not parse rejects the whole snapshot.
func Parse(data []byte, logger *slog.Logger) ([]survey.ScanEntry, error) {
	entries := make([]survey.ScanEntry, 0)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			logger.Warn(fmt.Sprintf("error parsing scan line: %s", err.Error()), slog.String("line", line))
			return nil, fmt.Errorf("%w: %w", provider.ErrNoResult, err)
		}

		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading scan output: %w", provider.ErrNoResult, err)
	}

	return entries, nil
}

func parseLine(line string) (survey.ScanEntry, error) {
	fields := splitEscaped(line)
	if len(fields) != numFields {
		return survey.ScanEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(fields))
	}

	frequency, err := provider.LeadingInt(fields[1])
	if err != nil {
		return survey.ScanEntry{}, fmt.Errorf("invalid frequency: %w", err)
	}

	signal, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return survey.ScanEntry{}, fmt.Errorf("invalid signal: %w", err)
	}

	bandwidth, err := provider.LeadingInt(fields[4])
	if err != nil {
		return survey.ScanEntry{}, fmt.Errorf("invalid bandwidth: %w", err)
	}

	entry := survey.ScanEntry{
		BSSID:               fields[0],
		FrequencyMHz:        frequency,
		RSSI:                signal,
		SSID:                fields[3],
		ChannelBandwidthMHz: bandwidth,
	}
	if err = entry.Validate(); err != nil {
		return survey.ScanEntry{}, err
	}

	return entry, nil
}

// splitEscaped splits a terse line on ':' honouring the "\:" and "\\" escapes.
func splitEscaped(line string) []string {
	var (
		fields []string
		sb     strings.Builder
	)

	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && i+1 < len(line):
			i++
			sb.WriteByte(line[i])
		case c == ':':
			fields = append(fields, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}

	return append(fields, sb.String())
}
