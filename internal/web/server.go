package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roman-kulish/wifi-survey/internal/heatmap"
	"github.com/roman-kulish/wifi-survey/internal/storage"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const (
	DefaultListen   = ":5000"
	DefaultCacheTTL = 30 * time.Second

	shutdownTimeout = 10 * time.Second
)

//go:embed templates/*.html
var templatesFS embed.FS

// Reader is the read-only view of the store the web service needs.
type Reader interface {
	Observation(ctx context.Context, id int64) (*survey.Observation, error)
	Observations(ctx context.Context) ([]survey.Observation, error)
	Iterate(ctx context.Context, opts ...storage.ReaderOption) (storage.ObservationReader, error)
	Count(ctx context.Context) (int64, error)
	Summary(ctx context.Context) (*survey.Summary, error)
}

// WithLogger sets the logger for the server
func WithLogger(logger *slog.Logger) func(s *Server) {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCacheTTL sets how long rendered heatmaps are reused
func WithCacheTTL(ttl time.Duration) func(s *Server) {
	return func(s *Server) {
		s.cacheTTL = ttl
	}
}

// WithTheme sets the default heatmap color theme
func WithTheme(theme heatmap.ColorTheme) func(s *Server) {
	return func(s *Server) {
		s.theme = theme
	}
}

// WithRegistry sets the Prometheus registry exposed on /metrics
func WithRegistry(registry *prometheus.Registry) func(s *Server) {
	return func(s *Server) {
		s.registry = registry
	}
}

// Server is the read-only query service over the observations store.
type Server struct {
	echo      *echo.Echo
	store     Reader
	cache     *cache.Cache
	cacheTTL  time.Duration
	templates *template.Template
	renderer  *heatmap.Renderer
	theme     heatmap.ColorTheme
	registry  *prometheus.Registry
	metrics   *Metrics
	logger    *slog.Logger
}

// New creates a new Server with all routes registered
func New(store Reader, options ...func(s *Server)) (*Server, error) {
	s := Server{
		store:    store,
		cacheTTL: DefaultCacheTTL,
		theme:    heatmap.EnhancedTheme,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	var err error
	if s.metrics, err = NewMetrics(s.registry); err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	if s.templates, err = template.ParseFS(templatesFS, "templates/*.html"); err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	if s.renderer, err = heatmap.NewRenderer(heatmap.RenderConfig{ColorTheme: s.theme}); err != nil {
		return nil, fmt.Errorf("creating heatmap renderer: %w", err)
	}

	// A zero TTL disables caching.
	if s.cacheTTL > 0 {
		s.cache = cache.New(s.cacheTTL, s.cacheTTL*2)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.metrics.Middleware())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			s.logger.LogAttrs(c.Request().Context(), slog.LevelDebug, "request", attrs...)
			return nil
		},
	}))

	s.routes()

	return &s, nil
}

func (s *Server) routes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/card/:id", s.handleCard)
	s.echo.GET("/data", s.handleData)
	s.echo.GET("/data_table", s.handleDataTable)
	s.echo.GET("/heatmap.png", s.handleHeatmap)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("query service listening", slog.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}

	s.logger.Info("query service stopped")

	return nil
}

// Close drops cached responses
func (s *Server) Close() {
	if s.cache != nil {
		s.cache.Flush()
	}
}
