package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 9.0
	tickMarkHeight = 5
	pixelsPerLabel = 150.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 110
	defaultBottomBorder = 60
	defaultRightBorder  = 40

	defaultDatetimeFormat = time.DateTime

	metersPerDegree = 111_320.0
)

// BorderConfig defines the sizes of white space around the raster
type BorderConfig struct {
	Top    int // Space for longitude scale
	Left   int // Space for latitude scale
	Bottom int // Space for information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for heatmap visualization
type RenderConfig struct {
	DatetimeFormat string         // Format string for date/time display
	Location       *time.Location // Timezone for time display

	FontSize     float64    // Font size in points
	ColorTheme   ColorTheme // Color scheme for signal values
	ColorMapSize int        // Number of colors in gradient (0 for default)

	BorderConfig BorderConfig
}

// Renderer draws a Grid as an annotated image
type Renderer struct {
	config RenderConfig
	font   *truetype.Font
}

// NewRenderer creates a new renderer with the given configuration
func NewRenderer(config RenderConfig) (*Renderer, error) {
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = EnhancedTheme
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &Renderer{config: config, font: parsedFont}, nil
}

// Theme returns the configured color theme
func (r *Renderer) Theme() ColorTheme {
	return r.config.ColorTheme
}

// Render creates an image of the grid with annotations
func (r *Renderer) Render(grid *Grid) (*image.RGBA, error) {
	return r.RenderWithTheme(grid, r.config.ColorTheme)
}

// RenderWithTheme renders the grid overriding the configured color theme
func (r *Renderer) RenderWithTheme(grid *Grid, theme ColorTheme) (*image.RGBA, error) {
	borders := r.config.BorderConfig

	fullWidth := grid.Width + borders.Left + borders.Right
	fullHeight := grid.Height + borders.Top + borders.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(borders.Left, borders.Top, borders.Left+grid.Width, borders.Top+grid.Height)

	ann := r.newAnnotator()
	defer ann.Close()

	if err := ann.annotate(img, grid); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	colorMap := NewColorMapperWithSize(theme, grid.Histogram.Bounds(), r.config.ColorMapSize)
	renderCells(img, area, grid, colorMap)

	return img, nil
}

func renderCells(img *image.RGBA, area image.Rectangle, grid *Grid, colorMap *ColorMapper) {
	for y, row := range grid.Cells {
		for x, signal := range row {
			if signal != nil {
				img.Set(area.Min.X+x, area.Min.Y+y, colorMap.GetColor(*signal))
			}
		}
	}

	// frame
	for x := area.Min.X - 1; x <= area.Max.X; x++ {
		img.Set(x, area.Min.Y-1, color.Black)
		img.Set(x, area.Max.Y, color.Black)
	}
	for y := area.Min.Y - 1; y <= area.Max.Y; y++ {
		img.Set(area.Min.X-1, y, color.Black)
		img.Set(area.Max.X, y, color.Black)
	}
}

type annotator struct {
	context  *freetype.Context
	config   RenderConfig
	fontFace font.Face
}

func (r *Renderer) newAnnotator() *annotator {
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(r.font)
	ctx.SetFontSize(r.config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  r.config,
		fontFace: truetype.NewFace(r.font, &truetype.Options{
			Size:    r.config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, grid *Grid) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawLongitudeScale(img, grid); err != nil {
		return fmt.Errorf("drawing longitude scale: %w", err)
	}
	if err := a.drawLatitudeScale(img, grid); err != nil {
		return fmt.Errorf("drawing latitude scale: %w", err)
	}
	if err := a.drawInfoBar(img, grid); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) drawLongitudeScale(img *image.RGBA, grid *Grid) error {
	span := grid.Area.LongitudeSpan()
	step := calculateNiceDegreeStep(span, grid.Width)
	start := math.Ceil(grid.Area.MinLongitude/step) * step

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := a.config.BorderConfig.Top - fontHeight/2

	for lon := start; lon <= grid.Area.MaxLongitude; lon += step {
		x := a.config.BorderConfig.Left + int((lon-grid.Area.MinLongitude)/span*float64(grid.Width))

		for y := a.config.BorderConfig.Top - tickMarkHeight; y < a.config.BorderConfig.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatDegrees(lon, step)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(x-(width.Round()/2), textY)); err != nil {
			return fmt.Errorf("drawing longitude label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawLatitudeScale(img *image.RGBA, grid *Grid) error {
	span := grid.Area.LatitudeSpan()
	step := calculateNiceDegreeStep(span, grid.Height)
	start := math.Ceil(grid.Area.MinLatitude/step) * step

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for lat := start; lat <= grid.Area.MaxLatitude; lat += step {
		y := a.config.BorderConfig.Top + int((grid.Area.MaxLatitude-lat)/span*float64(grid.Height))

		for x := a.config.BorderConfig.Left - tickMarkHeight; x < a.config.BorderConfig.Left; x++ {
			img.Set(x, y, color.Black)
		}

		label := formatDegrees(lat, step)
		width := font.MeasureString(a.fontFace, label)
		textX := a.config.BorderConfig.Left - tickMarkHeight - 3 - width.Round()
		textY := y + fontHeight/2 - metrics.Descent.Round()
		if _, err := a.context.DrawString(label, freetype.Pt(textX, textY)); err != nil {
			return fmt.Errorf("drawing latitude label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, grid *Grid) error {
	var line1, line2 strings.Builder

	line1.WriteString(fmt.Sprintf("%s observations of %s networks", humanize.Comma(int64(grid.Count)), humanize.Comma(int64(grid.Networks))))
	line1.WriteString("; ")
	line1.WriteString(fmt.Sprintf("RSSI: %d to %d dBm", grid.SignalMin, grid.SignalMax))
	line1.WriteString("; ")
	line1.WriteString(fmt.Sprintf("1px = %s", humanize.SIWithDigits(cellSizeMeters(grid), 1, "m")))

	if !grid.TimestampStart.IsZero() {
		line2.WriteString(fmt.Sprintf("Time: %s - %s (%s)",
			grid.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
			grid.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat),
			humanize.RelTime(grid.TimestampStart, grid.TimestampEnd, "", "")))
	}

	metrics := a.fontFace.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Round() + 4

	pt := freetype.Pt(a.config.BorderConfig.Left, img.Bounds().Max.Y-a.config.BorderConfig.Bottom+lineHeight+4)
	for _, s := range []string{line1.String(), line2.String()} {
		if s == "" {
			continue
		}
		if _, err := a.context.DrawString(s, pt); err != nil {
			return fmt.Errorf("drawing info text: %w", err)
		}
		pt.Y += a.context.PointToFixed(float64(lineHeight) * 72 / dpi)
	}

	return nil
}

// cellSizeMeters returns the east-west size of one cell at the centre latitude.
func cellSizeMeters(grid *Grid) float64 {
	centre := (grid.Area.MinLatitude + grid.Area.MaxLatitude) / 2
	return grid.Area.LongitudeSpan() / float64(grid.Width) * metersPerDegree * math.Cos(centre*math.Pi/180)
}

func calculateNiceDegreeStep(span float64, pixels int) float64 {
	steps := []float64{
		0.0001, 0.0002, 0.0005,
		0.001, 0.002, 0.005,
		0.01, 0.02, 0.05,
		0.1, 0.2, 0.5,
		1, 2, 5, 10, 20, 45,
	}

	target := span / (float64(pixels) / pixelsPerLabel)
	for _, step := range steps {
		if step >= target {
			return step
		}
	}
	return steps[len(steps)-1]
}

func formatDegrees(value, step float64) string {
	decimals := max(0, int(math.Ceil(-math.Log10(step))))
	return fmt.Sprintf("%.*f°", decimals, value)
}
