package app

import "math"

const (
	defaultMinCN0 = 20.0 // dB-Hz
	defaultMaxCN0 = 50.0 // dB-Hz

	// For 20 samples:
	// - 5% percentile  = 1 sample
	// - 95% percentile = 19th sample
	minimumSampleCount = 20

	minimumRange = 10 // dB-Hz
)

// CN0Bounds represents the calculated signal strength boundaries
type CN0Bounds struct {
	Min  float64 // 5th percentile C/N0 in dB-Hz
	Max  float64 // 95th percentile C/N0 in dB-Hz
	Mean float64
}

func defaultCN0Bounds() CN0Bounds {
	return CN0Bounds{
		Min:  defaultMinCN0,
		Max:  defaultMaxCN0,
		Mean: (defaultMinCN0 + defaultMaxCN0) / 2,
	}
}

// CN0Histogram maintains a histogram of C/N0 values with 1 dB-Hz bins
type CN0Histogram struct {
	bins       map[int]uint32
	totalCount uint64
	minBin     int
	maxBin     int
}

func NewCN0Histogram() *CN0Histogram {
	return &CN0Histogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

func (h *CN0Histogram) Update(cn0 *int64) {
	if cn0 == nil {
		return
	}

	bin := int(*cn0)
	h.bins[bin]++
	h.totalCount++

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

func (h *CN0Histogram) Count() uint64 {
	return h.totalCount
}

// Bounds returns the 5th and 95th percentile bounds widened to at least
// minimumRange. Small samples fall back to the default bounds.
func (h *CN0Histogram) Bounds() CN0Bounds {
	if h.totalCount < minimumSampleCount {
		return defaultCN0Bounds()
	}

	target := h.totalCount * 5 / 100

	var count uint64
	var lo, hi int
	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count >= target {
			lo = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count >= target {
			hi = bin
			break
		}
	}

	var sum float64
	for bin, n := range h.bins {
		sum += float64(bin) * float64(n)
	}

	if hi-lo < minimumRange {
		center := (hi + lo) / 2
		lo = center - minimumRange/2
		hi = center + minimumRange/2
	}

	return CN0Bounds{
		Min:  float64(lo),
		Max:  float64(hi),
		Mean: sum / float64(h.totalCount),
	}
}
