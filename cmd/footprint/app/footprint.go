package app

import (
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/reflection"
)

// FootprintData collects the Fresnel zones to render and their extent.
type FootprintData struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
	TimestampStart time.Time
	TimestampEnd   time.Time
	Histogram      *CN0Histogram
	Zones          []reflection.Zone
	Satellites     map[string]int // zones per satellite
	SpecularPoints int
	MaxRange       float64 // meters
	rangeSum       float64
}

func NewFootprintData() *FootprintData {
	return &FootprintData{
		LatMin:     math.MaxFloat64,
		LatMax:     -math.MaxFloat64,
		LonMin:     math.MaxFloat64,
		LonMax:     -math.MaxFloat64,
		Histogram:  NewCN0Histogram(),
		Satellites: make(map[string]int),
	}
}

func (f *FootprintData) extend(lat, lon float64) {
	f.LatMin = min(f.LatMin, lat)
	f.LatMax = max(f.LatMax, lat)
	f.LonMin = min(f.LonMin, lon)
	f.LonMax = max(f.LonMax, lon)
}

func (f *FootprintData) Update(z reflection.Zone) {
	ts := z.Time()
	if f.TimestampStart.IsZero() || f.TimestampStart.After(ts) {
		f.TimestampStart = ts
	}
	if f.TimestampEnd.IsZero() || f.TimestampEnd.Before(ts) {
		f.TimestampEnd = ts
	}

	for _, p := range z.Zone.Ring {
		f.extend(p.Latitude, p.Longitude)
	}
	f.extend(z.Track.Latitude, z.Track.Longitude)

	if z.Specular != nil {
		f.SpecularPoints++
		if r, ok := reflection.Range(z.Sample); ok {
			f.MaxRange = max(f.MaxRange, r)
			f.rangeSum += r
		}
	}

	f.Histogram.Update(z.Observation.CN0)
	f.Satellites[fmt.Sprintf("%s%02d", z.Observation.Constellation, z.Observation.PRN)]++
	f.Zones = append(f.Zones, z)
}

func (f *FootprintData) Empty() bool {
	return len(f.Zones) == 0
}

func (f *FootprintData) MeanRange() float64 {
	if f.SpecularPoints == 0 {
		return 0
	}
	return f.rangeSum / float64(f.SpecularPoints)
}

// Aspect returns height/width of the extent on an equirectangular
// projection scaled by the cosine of the mean latitude.
func (f *FootprintData) Aspect() float64 {
	dLon := (f.LonMax - f.LonMin) * math.Cos((f.LatMin+f.LatMax)/2*math.Pi/180)
	dLat := f.LatMax - f.LatMin
	if dLon <= 0 || dLat <= 0 {
		return 1
	}
	return dLat / dLon
}
