package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/provider/nmcli"
	"github.com/roman-kulish/wifi-survey/internal/provider/termux"
	"github.com/roman-kulish/wifi-survey/internal/sampler"
	"github.com/roman-kulish/wifi-survey/internal/storage"
)

const metricsShutdownTimeout = 5 * time.Second

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	logEnvironment(ctx, logger)

	var store storage.Store = storage.NewSqliteStore(config.Storage.Path)
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logDatabase(config.Storage.Path, logger)

	runner := provider.NewRunner(
		provider.WithLogger(logger),
		provider.WithTimeout(config.Sampler.ProviderTimeout.Duration()))

	chain, err := createChain(&config.Location, runner)
	if err != nil {
		return fmt.Errorf("failed to create location chain: %w", err)
	}

	scanner, runtime, err := createScanner(&config.Scan, runner, logger)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	// Missing tools are not fatal, every tick reports them as skipped.
	for _, name := range []string{termux.LocationRuntime, runtime} {
		if _, err := provider.FindRuntime(name); err != nil {
			logger.Warn("external tool not found", slog.String("runtime", name), slog.String("error", err.Error()))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := sampler.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	if config.Metrics.Listen != "" {
		stop := serveMetrics(config.Metrics.Listen, registry, logger)
		defer stop()
	}

	s := sampler.New(chain, scanner, store,
		sampler.WithLogger(logger),
		sampler.WithInterval(config.Sampler.Interval.Duration()),
		sampler.WithMetrics(metrics))

	return s.Run(ctx)
}

func createChain(config *LocationConfig, runner *provider.Runner) (sampler.Chain, error) {
	modes, err := config.Modes()
	if err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderTermux:
		return sampler.NewChain(termux.NewLocation(runner), modes...), nil

	default:
		return nil, fmt.Errorf("unknown location provider '%s'", config.Provider)
	}
}

func createScanner(config *ScanConfig, runner *provider.Runner, logger *slog.Logger) (provider.ScanProvider, string, error) {
	switch config.Provider {
	case ProviderTermux:
		return termux.NewWiFi(runner, termux.WithScanLogger(logger)), termux.ScanRuntime, nil

	case ProviderNmcli:
		return nmcli.New(runner, nmcli.WithLogger(logger)), nmcli.Runtime, nil

	default:
		return nil, "", fmt.Errorf("unknown scan provider '%s'", config.Provider)
	}
}

// serveMetrics exposes the registry on addr and returns a function stopping the server.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	done := make(chan struct{})
	go func() {
		defer close(done)

		logger.Info("metrics listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if err := e.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", slog.String("error", err.Error()))
		}
		<-done
	}
}
