package telemetry

import (
	"time"
)

// TrackPoint is one flight recorder sample.
type TrackPoint struct {
	Time      time.Time `json:"time"`      // UTC, whole seconds
	Latitude  float64   `json:"latitude"`  // degrees
	Longitude float64   `json:"longitude"` // degrees
	Altitude  float64   `json:"altitude"`  // meters above the ellipsoid
	Course    float64   `json:"course"`    // degrees
	Roll      float64   `json:"roll"`      // degrees
	Pitch     float64   `json:"pitch"`     // degrees
}

// Epoch returns the sample time in epoch seconds, the key used to match
// receiver observations.
func (p TrackPoint) Epoch() int64 {
	return p.Time.Unix()
}
