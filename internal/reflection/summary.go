package reflection

import (
	"fmt"

	geo "github.com/kellydunn/golang-geo"
)

// Summary describes a set of solved samples.
type Summary struct {
	Samples      int
	WithSpecular int
	Satellites   int     // distinct constellation/PRN pairs
	MaxRange     float64 // meters, receiver to specular point
	MeanRange    float64 // meters
}

// Range returns the great-circle distance in meters between the receiver
// and the specular point, or false when the sample was not solved.
func Range(s Sample) (float64, bool) {
	if s.Specular == nil {
		return 0, false
	}
	rx := geo.NewPoint(s.Track.Latitude, s.Track.Longitude)
	sp := geo.NewPoint(s.Specular.Latitude, s.Specular.Longitude)
	return rx.GreatCircleDistance(sp) * 1000, true
}

// Summarize computes counts and specular range statistics.
func Summarize(samples []Sample) Summary {
	sum := Summary{Samples: len(samples)}
	sats := make(map[string]struct{})

	var total float64
	for _, s := range samples {
		sats[fmt.Sprintf("%s%d", s.Observation.Constellation, s.Observation.PRN)] = struct{}{}

		r, ok := Range(s)
		if !ok {
			continue
		}
		sum.WithSpecular++
		total += r
		sum.MaxRange = max(sum.MaxRange, r)
	}
	if sum.WithSpecular > 0 {
		sum.MeanRange = total / float64(sum.WithSpecular)
	}
	sum.Satellites = len(sats)
	return sum
}
