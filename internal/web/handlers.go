package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/roman-kulish/wifi-survey/internal/heatmap"
	"github.com/roman-kulish/wifi-survey/internal/storage"
)

const (
	emptyMapZoom = 2
	mapZoom      = 13
)

// marker is the minimal observation projection the map page needs.
type marker struct {
	ID        int64   `json:"id"`
	SSID      string  `json:"ssid"`
	BSSID     string  `json:"bssid"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type indexPage struct {
	Count     int
	Latitude  float64
	Longitude float64
	Zoom      int
	Markers   []marker
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Observations int64  `json:"observations"`
}

func (s *Server) jsonError(c echo.Context, code int, message string) error {
	return c.JSON(code, errorResponse{Error: message})
}

func (s *Server) storeError(c echo.Context, err error) error {
	s.logger.Error("error reading store",
		slog.String("route", c.Path()),
		slog.String("error", err.Error()))

	return s.jsonError(c, http.StatusInternalServerError, "Error reading observations")
}

func (s *Server) handleIndex(c echo.Context) error {
	observations, err := s.store.Observations(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}

	page := indexPage{
		Count:   len(observations),
		Zoom:    emptyMapZoom,
		Markers: make([]marker, len(observations)),
	}

	// The centre comes from the same rows as the markers.
	for i, o := range observations {
		page.Markers[i] = marker{
			ID:        o.ID,
			SSID:      o.SSID,
			BSSID:     o.BSSID,
			Latitude:  o.Latitude,
			Longitude: o.Longitude,
		}
		page.Latitude += o.Latitude
		page.Longitude += o.Longitude
	}

	if n := float64(len(observations)); n > 0 {
		page.Latitude /= n
		page.Longitude /= n
		page.Zoom = mapZoom
	}

	var buf bytes.Buffer
	if err = s.templates.ExecuteTemplate(&buf, "index.html", page); err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleCard(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return s.jsonError(c, http.StatusBadRequest, fmt.Sprintf("Invalid point id: %q", c.Param("id")))
	}

	observation, err := s.store.Observation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.jsonError(c, http.StatusNotFound, "Point not found")
		}
		return s.storeError(c, err)
	}

	return c.JSON(http.StatusOK, observation)
}

// handleData streams every observation as a JSON array, one page at a time.
func (s *Server) handleData(c echo.Context) error {
	ctx := c.Request().Context()

	reader, err := s.store.Iterate(ctx)
	if err != nil {
		return s.storeError(c, err)
	}
	defer reader.Close()

	// The first page decides the status code, later failures truncate the body.
	more := reader.Next(ctx)
	if err = reader.Error(); err != nil {
		return s.storeError(c, err)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(resp)
	if _, err = resp.Write([]byte("[")); err != nil {
		return err
	}
	for n := 0; more; n++ {
		if n > 0 {
			if _, err = resp.Write([]byte(",")); err != nil {
				return err
			}
		}
		if err = enc.Encode(reader.Current()); err != nil {
			return fmt.Errorf("encoding observation: %w", err)
		}

		more = reader.Next(ctx)
	}
	if err = reader.Error(); err != nil {
		s.logger.Error("error streaming observations", slog.String("error", err.Error()))
		return fmt.Errorf("streaming observations: %w", err)
	}

	_, err = resp.Write([]byte("]"))
	return err
}

func (s *Server) handleDataTable(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "data_table.html", nil); err != nil {
		return fmt.Errorf("rendering data table: %w", err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func dimensionParam(c echo.Context, name string, def int) (int, error) {
	value := c.QueryParam(name)
	if value == "" {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 || n > heatmap.MaxDimension {
		return 0, fmt.Errorf("invalid %s: must be an integer between 1 and %d", name, heatmap.MaxDimension)
	}
	return n, nil
}

func (s *Server) handleHeatmap(c echo.Context) error {
	theme := s.theme
	if name := c.QueryParam("theme"); name != "" {
		var err error
		if theme, err = heatmap.ParseTheme(name); err != nil {
			return s.jsonError(c, http.StatusBadRequest, err.Error())
		}
	}

	width, err := dimensionParam(c, "width", heatmap.DefaultWidth)
	if err != nil {
		return s.jsonError(c, http.StatusBadRequest, err.Error())
	}

	height, err := dimensionParam(c, "height", heatmap.DefaultHeight)
	if err != nil {
		return s.jsonError(c, http.StatusBadRequest, err.Error())
	}

	key := fmt.Sprintf("heatmap:%s:%dx%d", theme, width, height)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheLookup("heatmap", true)
			return c.Blob(http.StatusOK, "image/png", v.([]byte))
		}
		s.metrics.RecordCacheLookup("heatmap", false)
	}

	grid, err := s.buildGrid(c, width, height)
	if err != nil {
		if errors.Is(err, heatmap.ErrNoData) {
			return s.jsonError(c, http.StatusNotFound, "No observations recorded yet")
		}
		return s.storeError(c, err)
	}

	img, err := s.renderer.RenderWithTheme(grid, theme)
	if err != nil {
		return fmt.Errorf("rendering heatmap: %w", err)
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding heatmap: %w", err)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, buf.Bytes())
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// buildGrid sizes the grid from the stored bounding box and streams rows into it.
func (s *Server) buildGrid(c echo.Context, width, height int) (*heatmap.Grid, error) {
	ctx := c.Request().Context()

	summary, err := s.store.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}
	if summary.Count == 0 {
		return nil, heatmap.ErrNoData
	}

	grid, err := heatmap.NewGridOver(heatmap.Area{
		MinLatitude:  summary.MinLatitude,
		MaxLatitude:  summary.MaxLatitude,
		MinLongitude: summary.MinLongitude,
		MaxLongitude: summary.MaxLongitude,
	}, width, height)
	if err != nil {
		return nil, fmt.Errorf("creating heatmap grid: %w", err)
	}

	reader, err := s.store.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	for reader.Next(ctx) {
		grid.Add(reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, fmt.Errorf("reading observations: %w", err)
	}
	if grid.Count == 0 {
		return nil, heatmap.ErrNoData
	}

	return grid, nil
}

func (s *Server) handleHealth(c echo.Context) error {
	count, err := s.store.Count(c.Request().Context())
	if err != nil {
		s.logger.Warn("health check failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
	}

	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Observations: count})
}
