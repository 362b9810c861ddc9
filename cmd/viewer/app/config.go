package app

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/roman-kulish/wifi-survey/internal/heatmap"
	"github.com/roman-kulish/wifi-survey/internal/web"
)

const defaultDBPath = "data/database.db"

type Config struct {
	DBPath   string
	Listen   string
	LogLevel slog.Level
	Theme    heatmap.ColorTheme
	CacheTTL time.Duration
}

func NewConfig() *Config {
	return &Config{
		DBPath:   defaultDBPath,
		Listen:   web.DefaultListen,
		LogLevel: slog.LevelInfo,
		Theme:    heatmap.EnhancedTheme,
		CacheTTL: web.DefaultCacheTTL,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var theme, logLevel string
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Path to the database file")
	fs.StringVar(&c.Listen, "listen", c.Listen, "Address the query service listens on")
	fs.StringVar(&logLevel, "log-level", c.LogLevel.String(), "Log level. [DEBUG, INFO, WARN, ERROR]")
	fs.StringVar(&theme, "theme", string(c.Theme), "Default heatmap color theme. [classic, grayscale, jungle, thermal, marine, enhanced]")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "How long summaries and heatmaps are cached, 0 disables caching")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.Listen == "" {
		err = errors.New("listen address is required")
	} else if c.CacheTTL < 0 {
		err = fmt.Errorf("invalid cache ttl: %s", c.CacheTTL)
	} else if err = c.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		err = fmt.Errorf("invalid log level: %s", logLevel)
	} else if c.Theme, err = heatmap.ParseTheme(theme); err != nil {
		err = fmt.Errorf("invalid theme: %s", theme)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	return c, nil
}
