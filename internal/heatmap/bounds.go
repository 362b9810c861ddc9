package heatmap

import "math"

const (
	defaultMinSignal = -100.0 // dBm
	defaultMaxSignal = -30.0  // dBm

	// Below this many samples the raw min and max are used instead of percentiles.
	minimumSampleCount = 20

	minimumSignalRange = 20 // dB
)

// SignalBounds represents the signal range mapped onto the color scale
type SignalBounds struct {
	Min  float64 // Weak end of the scale in dBm
	Max  float64 // Strong end of the scale in dBm
	Mean float64 // Mean signal in dBm
}

func defaultSignalBounds() SignalBounds {
	return SignalBounds{
		Min:  defaultMinSignal,
		Max:  defaultMaxSignal,
		Mean: (defaultMinSignal + defaultMaxSignal) / 2,
	}
}

// SignalHistogram maintains a histogram of signal values with 1dB bins
type SignalHistogram struct {
	bins       map[int]uint32
	totalCount uint64
	minBin     int
	maxBin     int
}

// NewSignalHistogram creates a new histogram
func NewSignalHistogram() *SignalHistogram {
	return &SignalHistogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

// Update adds a signal reading to the histogram
func (h *SignalHistogram) Update(signal float64) {
	bin := int(math.Floor(signal))

	h.bins[bin]++
	h.totalCount++

	if bin < h.minBin {
		h.minBin = bin
	}
	if bin > h.maxBin {
		h.maxBin = bin
	}
}

// Count returns the number of readings
func (h *SignalHistogram) Count() uint64 {
	return h.totalCount
}

// Bounds returns the 5th to 95th percentile range, widened to at least 20 dB.
func (h *SignalHistogram) Bounds() SignalBounds {
	if h.totalCount == 0 {
		return defaultSignalBounds()
	}

	low, high := h.minBin, h.maxBin

	if h.totalCount >= minimumSampleCount {
		target := h.totalCount * 5 / 100

		var count uint64
		for bin := h.minBin; bin <= h.maxBin; bin++ {
			count += uint64(h.bins[bin])
			if count >= target {
				low = bin
				break
			}
		}

		count = 0
		for bin := h.maxBin; bin >= h.minBin; bin-- {
			count += uint64(h.bins[bin])
			if count >= target {
				high = bin
				break
			}
		}
	}

	var sumProduct float64
	for bin, n := range h.bins {
		sumProduct += float64(bin) * float64(n)
	}
	mean := sumProduct / float64(h.totalCount)

	if high-low < minimumSignalRange {
		center := (high + low) / 2
		low = center - minimumSignalRange/2
		high = center + minimumSignalRange/2
	}

	return SignalBounds{
		Min:  float64(low),
		Max:  float64(high),
		Mean: mean,
	}
}
