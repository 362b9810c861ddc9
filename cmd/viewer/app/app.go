package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/wifi-survey/internal/storage"
	"github.com/roman-kulish/wifi-survey/internal/web"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	stat, err := os.Stat(config.DBPath)
	if err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	} else if err != nil {
		return fmt.Errorf("checking database file '%s': %w", config.DBPath, err)
	}

	// Read-only: the sampler owns the schema.
	var store storage.Store = storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("reading database: %w", err)
	}

	logger.Info("database opened",
		slog.String("path", config.DBPath),
		slog.String("size", humanize.IBytes(uint64(stat.Size()))),
		slog.String("observations", humanize.Comma(count)))

	server, err := web.New(store,
		web.WithLogger(logger),
		web.WithCacheTTL(config.CacheTTL),
		web.WithTheme(config.Theme))
	if err != nil {
		return fmt.Errorf("creating query service: %w", err)
	}
	defer server.Close()

	return server.Start(ctx, config.Listen)
}
