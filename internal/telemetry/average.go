package telemetry

import (
	"slices"
	"time"
)

// AverageByEpoch merges points sharing the same epoch second into their
// arithmetic mean. The result is ordered by time.
func AverageByEpoch(points []TrackPoint) []TrackPoint {
	type acc struct {
		sum TrackPoint
		n   float64
	}

	groups := make(map[int64]*acc, len(points))
	keys := make([]int64, 0, len(points))
	for _, p := range points {
		k := p.Epoch()
		g, ok := groups[k]
		if !ok {
			g = &acc{}
			groups[k] = g
			keys = append(keys, k)
		}
		g.sum.Latitude += p.Latitude
		g.sum.Longitude += p.Longitude
		g.sum.Altitude += p.Altitude
		g.sum.Course += p.Course
		g.sum.Roll += p.Roll
		g.sum.Pitch += p.Pitch
		g.n++
	}
	slices.Sort(keys)

	out := make([]TrackPoint, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, TrackPoint{
			Time:      time.Unix(k, 0).UTC(),
			Latitude:  g.sum.Latitude / g.n,
			Longitude: g.sum.Longitude / g.n,
			Altitude:  g.sum.Altitude / g.n,
			Course:    g.sum.Course / g.n,
			Roll:      g.sum.Roll / g.n,
			Pitch:     g.sum.Pitch / g.n,
		})
	}
	return out
}
