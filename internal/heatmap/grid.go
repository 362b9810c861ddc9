package heatmap

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/wifi-survey/internal/survey"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	MaxDimension  = 2048

	defaultRadius = 3 // cells painted around each observation

	// Keeps a single location from collapsing the box, about 100 m.
	minimumSpanDegrees = 0.001
	paddingRatio       = 0.1
)

// ErrNoData is returned when there is nothing to rasterise.
var ErrNoData = errors.New("no observations to render")

// Area is a latitude/longitude bounding box in degrees
type Area struct {
	MinLatitude, MaxLatitude   float64
	MinLongitude, MaxLongitude float64
}

// LatitudeSpan returns the height of the area in degrees
func (a Area) LatitudeSpan() float64 {
	return a.MaxLatitude - a.MinLatitude
}

// LongitudeSpan returns the width of the area in degrees
func (a Area) LongitudeSpan() float64 {
	return a.MaxLongitude - a.MinLongitude
}

// WithRadius sets how many cells around an observation receive its signal
func WithRadius(radius int) func(g *Grid) {
	return func(g *Grid) {
		if radius >= 0 {
			g.radius = radius
		}
	}
}

// Grid is an equirectangular raster over the observed area. Every cell holds
// the strongest signal seen there, or nil.
type Grid struct {
	Width, Height                int
	Area                         Area
	Count                        int
	Networks                     int
	TimestampStart, TimestampEnd time.Time
	SignalMin, SignalMax         int
	Histogram                    *SignalHistogram
	Cells                        [][]*float64 // [row][column], row 0 is north

	radius   int
	networks map[string]struct{}
}

// NewGrid rasterises observations onto a width x height grid.
func NewGrid(observations []survey.Observation, width, height int, options ...func(g *Grid)) (*Grid, error) {
	if len(observations) == 0 {
		return nil, ErrNoData
	}

	bounds := Area{
		MinLatitude:  math.MaxFloat64,
		MaxLatitude:  -math.MaxFloat64,
		MinLongitude: math.MaxFloat64,
		MaxLongitude: -math.MaxFloat64,
	}
	for _, o := range observations {
		bounds.MinLatitude = min(bounds.MinLatitude, o.Latitude)
		bounds.MaxLatitude = max(bounds.MaxLatitude, o.Latitude)
		bounds.MinLongitude = min(bounds.MinLongitude, o.Longitude)
		bounds.MaxLongitude = max(bounds.MaxLongitude, o.Longitude)
	}

	g, err := NewGridOver(bounds, width, height, options...)
	if err != nil {
		return nil, err
	}

	for i := range observations {
		g.Add(&observations[i])
	}

	return g, nil
}

// NewGridOver creates an empty grid covering bounds plus padding. Observations
// are added one at a time with Add, so callers can stream them from storage.
func NewGridOver(bounds Area, width, height int, options ...func(g *Grid)) (*Grid, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if bounds.LatitudeSpan() < 0 || bounds.LongitudeSpan() < 0 {
		return nil, fmt.Errorf("invalid bounds %+v", bounds)
	}

	g := &Grid{
		Width:     width,
		Height:    height,
		Area:      padArea(bounds),
		Histogram: NewSignalHistogram(),
		SignalMin: math.MaxInt,
		SignalMax: math.MinInt,
		radius:    defaultRadius,
		networks:  make(map[string]struct{}),
	}

	for _, option := range options {
		option(g)
	}

	g.Cells = make([][]*float64, height)
	for y := range g.Cells {
		g.Cells[y] = make([]*float64, width)
	}

	return g, nil
}

func padArea(a Area) Area {
	latSpan := max(a.LatitudeSpan(), minimumSpanDegrees) * (0.5 + paddingRatio)
	lonSpan := max(a.LongitudeSpan(), minimumSpanDegrees) * (0.5 + paddingRatio)
	latCenter := (a.MinLatitude + a.MaxLatitude) / 2
	lonCenter := (a.MinLongitude + a.MaxLongitude) / 2

	a.MinLatitude, a.MaxLatitude = latCenter-latSpan, latCenter+latSpan
	a.MinLongitude, a.MaxLongitude = lonCenter-lonSpan, lonCenter+lonSpan
	return a
}

// Cell returns the grid cell containing the coordinates
func (g *Grid) Cell(latitude, longitude float64) (x, y int) {
	x = int((longitude - g.Area.MinLongitude) / g.Area.LongitudeSpan() * float64(g.Width))
	y = int((g.Area.MaxLatitude - latitude) / g.Area.LatitudeSpan() * float64(g.Height))

	x = max(0, min(x, g.Width-1))
	y = max(0, min(y, g.Height-1))
	return x, y
}

// Add paints an observation. Positions outside the area are clamped to the edge.
func (g *Grid) Add(o *survey.Observation) {
	g.Count++
	g.networks[o.BSSID] = struct{}{}
	g.Networks = len(g.networks)
	g.SignalMin = min(g.SignalMin, o.RSSI)
	g.SignalMax = max(g.SignalMax, o.RSSI)
	g.Histogram.Update(float64(o.RSSI))

	if !o.Timestamp.IsZero() {
		if g.TimestampStart.IsZero() || o.Timestamp.Before(g.TimestampStart) {
			g.TimestampStart = o.Timestamp
		}
		if g.TimestampEnd.IsZero() || o.Timestamp.After(g.TimestampEnd) {
			g.TimestampEnd = o.Timestamp
		}
	}

	cx, cy := g.Cell(o.Latitude, o.Longitude)
	signal := float64(o.RSSI)

	for y := cy - g.radius; y <= cy+g.radius; y++ {
		if y < 0 || y >= g.Height {
			continue
		}
		for x := cx - g.radius; x <= cx+g.radius; x++ {
			if x < 0 || x >= g.Width {
				continue
			}
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy > g.radius*g.radius {
				continue
			}
			if cell := g.Cells[y][x]; cell == nil || *cell < signal {
				s := signal
				g.Cells[y][x] = &s
			}
		}
	}
}
