package reflection

import (
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

// Join matches observations with flight recorder samples on the epoch
// second. Track points sharing a second are averaged first; observations
// without a matching track point are dropped. Samples are ordered by time,
// then by observation order.
func Join(track []telemetry.TrackPoint, obs []observation.Observation) []Sample {
	byEpoch := make(map[int64][]observation.Observation)
	for _, o := range obs {
		k := o.Time.Unix()
		byEpoch[k] = append(byEpoch[k], o)
	}

	var out []Sample
	for _, p := range telemetry.AverageByEpoch(track) {
		for _, o := range byEpoch[p.Epoch()] {
			out = append(out, Sample{Track: p, Observation: o})
		}
	}
	return out
}
