package heatmap

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// ColorTheme represents a predefined color scheme for signal strength
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white
	EnhancedTheme  ColorTheme = "enhanced"  // Multi-stage, better low signal differentiation

	DefaultColorMapSize = 256 // Default number of colors in the map
)

var validThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
	EnhancedTheme:  {},
}

// ParseTheme converts a theme name into a ColorTheme. An empty name selects the enhanced theme.
func ParseTheme(name string) (ColorTheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EnhancedTheme, nil
	}
	if _, ok := validThemes[ColorTheme(name)]; !ok {
		return "", fmt.Errorf("invalid color theme: %s", name)
	}
	return ColorTheme(name), nil
}

// ColorMapper maps signal strength to colors through a pre-computed table
type ColorMapper struct {
	colorMap       []color.Color // Pre-computed colors
	theme          func(float64) color.Color
	themeName      ColorTheme
	size           int
	signalPerIndex float64
	boundsMin      float64
	boundsMax      float64
}

// NewColorMapper creates a new color mapper with the default size
func NewColorMapper(theme ColorTheme, bounds SignalBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a new color mapper with size pre-computed colors
func NewColorMapperWithSize(theme ColorTheme, bounds SignalBounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		theme:     getColorTheme(theme),
		themeName: theme,
		size:      size,
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds updates the signal bounds and recomputes the color map
func (cm *ColorMapper) UpdateBounds(bounds SignalBounds) {
	cm.boundsMin = bounds.Min
	cm.boundsMax = bounds.Max
	cm.signalPerIndex = (bounds.Max - bounds.Min) / float64(cm.size-1)

	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
}

// GetColor returns a color for the given signal value, clamped to the bounds
func (cm *ColorMapper) GetColor(signal float64) color.Color {
	if cm.signalPerIndex <= 0 {
		return cm.colorMap[cm.size-1]
	}

	signal = math.Max(cm.boundsMin, math.Min(signal, cm.boundsMax))

	index := int((signal - cm.boundsMin) / cm.signalPerIndex)
	if index < 0 {
		index = 0
	} else if index >= cm.size {
		index = cm.size - 1
	}
	return cm.colorMap[index]
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// HSV represents a color in HSV color space
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

// RGB converts HSV color space to RGB
func (hsv HSV) RGB() color.Color {
	h := hsv.H
	s := hsv.S
	v := math.Max(0, math.Min(1, hsv.V))

	if s <= 0.0 {
		rgb := uint8(v * 255)
		return color.RGBA{R: rgb, G: rgb, B: rgb, A: 0xff}
	}

	// Normalize hue to [0-6]
	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64

	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}

// signalToColorEnhanced gives better differentiation in the weak signal range
func signalToColorEnhanced(normalized float64) color.Color {
	signal := math.Max(0, math.Min(1, normalized))
	enhanced := math.Pow(signal, 0.7)

	var hsv HSV

	switch {
	case signal < 0.25:
		// Black -> Blue
		hsv = HSV{H: 240, S: 1.0, V: enhanced * 4}
	case signal < 0.5:
		// Blue -> Cyan
		hsv = HSV{H: 240 - ((signal - 0.25) * 240), S: 1.0, V: enhanced * 1.5}
	case signal < 0.75:
		// Cyan -> Yellow
		p := (signal - 0.5) * 4
		hsv = HSV{H: 180 - (p * 120), S: 1.0, V: math.Min(1.0, enhanced*1.5)}
	default:
		// Yellow -> Red
		p := (signal - 0.75) * 4
		hsv = HSV{H: 60 - (p * 60), S: 1.0, V: 1.0}
	}

	return hsv.RGB()
}

func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(signal float64) color.Color {
			return HSV{
				H: 240 - (signal * 240),
				S: 0.9 + (signal * 0.1),
				V: math.Pow(signal, 0.7),
			}.RGB()
		}

	case GrayscaleTheme:
		return func(signal float64) color.Color {
			v := uint8(math.Pow(signal, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 0xff}
		}

	case JungleTheme:
		return func(signal float64) color.Color {
			return HSV{
				H: 120 - (signal * 60),
				S: 1.0,
				V: 0.3 + (math.Pow(signal, 0.6) * 0.7),
			}.RGB()
		}

	case ThermalTheme:
		return func(signal float64) color.Color {
			if signal < 0.33 {
				return color.RGBA{R: uint8((signal * 3) * 255), A: 0xff}
			}
			if signal < 0.66 {
				return color.RGBA{R: 255, G: uint8(((signal - 0.33) * 3) * 255), A: 0xff}
			}
			return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (signal-0.66)*3) * 255), A: 0xff}
		}

	case MarineTheme:
		return func(signal float64) color.Color {
			return HSV{
				H: 240 - (signal * 60),
				S: 1.0 - (signal * 0.8),
				V: 0.3 + (math.Pow(signal, 0.6) * 0.7),
			}.RGB()
		}

	default:
		return signalToColorEnhanced
	}
}
