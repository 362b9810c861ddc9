package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/sampler"
)

const (
	ProviderTermux = "termux"
	ProviderNmcli  = "nmcli"

	defaultStoragePath = "data/database.db"
)

var (
	validLocationProviders = map[string]struct{}{
		ProviderTermux: {},
	}

	validScanProviders = map[string]struct{}{
		ProviderTermux: {},
		ProviderNmcli:  {},
	}
)

type TimeDuration time.Duration

func NewTimeDuration(d time.Duration) TimeDuration {
	return TimeDuration(d)
}

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d *TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *TimeDuration) Validate() error {
	duration := time.Duration(*d)

	if duration < time.Second {
		return fmt.Errorf("app.TimeDuration: must be at least 1 second: %s given", duration)
	}

	return nil
}

func (d *TimeDuration) Duration() time.Duration {
	return time.Duration(*d)
}

func (d *TimeDuration) String() string {
	return time.Duration(*d).String()
}

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Storage  StorageConfig  `yaml:"storage"`
	Sampler  SamplerConfig  `yaml:"sampler"`
	Location LocationConfig `yaml:"location"`
	Scan     ScanConfig     `yaml:"scan"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SamplerConfig represents sampling loop settings
type SamplerConfig struct {
	Interval        TimeDuration `yaml:"interval"`
	ProviderTimeout TimeDuration `yaml:"providerTimeout"`
}

// LocationConfig selects the location provider and the order of its modes
type LocationConfig struct {
	Provider string   `yaml:"provider"`
	Chain    []string `yaml:"chain"`
}

// ScanConfig selects the Wi-Fi scan provider
type ScanConfig struct {
	Provider string `yaml:"provider"`
}

// MetricsConfig represents Prometheus exposition settings
type MetricsConfig struct {
	Listen string `yaml:"listen"` // Empty disables the metrics endpoint
}

// NewConfig returns the configuration used for any value the file leaves out.
func NewConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: slog.LevelInfo},
		Storage:  StorageConfig{Path: defaultStoragePath},
		Sampler: SamplerConfig{
			Interval:        NewTimeDuration(sampler.DefaultInterval),
			ProviderTimeout: NewTimeDuration(provider.DefaultTimeout),
		},
		Location: LocationConfig{
			Provider: ProviderTermux,
			Chain: []string{
				provider.ModeGPSOnce.String(),
				provider.ModeGPSUpdates.String(),
				provider.ModeNetworkOnce.String(),
			},
		},
		Scan: ScanConfig{Provider: ProviderTermux},
	}
}

// LoadConfig reads the YAML configuration file at path on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	return decodeConfig(f)
}

func decodeConfig(r io.Reader) (*Config, error) {
	c := NewConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if err := c.Sampler.Interval.Validate(); err != nil {
		return fmt.Errorf("sampler.interval: %w", err)
	}
	if err := c.Sampler.ProviderTimeout.Validate(); err != nil {
		return fmt.Errorf("sampler.providerTimeout: %w", err)
	}
	if _, ok := validLocationProviders[c.Location.Provider]; !ok {
		return fmt.Errorf("location.provider: unknown provider '%s'", c.Location.Provider)
	}
	if _, err := c.Location.Modes(); err != nil {
		return fmt.Errorf("location.chain: %w", err)
	}
	if _, ok := validScanProviders[c.Scan.Provider]; !ok {
		return fmt.Errorf("scan.provider: unknown provider '%s'", c.Scan.Provider)
	}
	return nil
}

// Modes returns the parsed location chain.
func (c *LocationConfig) Modes() ([]provider.Mode, error) {
	if len(c.Chain) == 0 {
		return nil, errors.New("at least one mode is required")
	}

	modes := make([]provider.Mode, 0, len(c.Chain))
	for _, name := range c.Chain {
		mode, err := provider.ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}
