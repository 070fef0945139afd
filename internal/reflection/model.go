package reflection

import (
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

// Sample is a receiver observation matched with the flight recorder sample
// taken in the same epoch second.
type Sample struct {
	Track       telemetry.TrackPoint    `json:"track"`
	Observation observation.Observation `json:"observation"`
	Specular    *geodesy.LLA            `json:"specular,omitempty"` // nil when the geometry is undefined
}

// Time returns the shared epoch second of the track point and observation.
func (s Sample) Time() time.Time {
	return s.Track.Time
}

// Receiver returns the flight recorder position used as the geometry origin.
func (s Sample) Receiver() geodesy.LLA {
	return geodesy.LLA{
		Latitude:  s.Track.Latitude,
		Longitude: s.Track.Longitude,
		Altitude:  s.Track.Altitude,
	}
}

// HasGeometry reports whether the sample carries usable line-of-sight angles.
func (s Sample) HasGeometry() bool {
	el := s.Observation.Elevation
	return el != nil && *el > 0 && s.Observation.Azimuth != nil
}

// FresnelZone is the reflection zone ellipse around a specular point.
type FresnelZone struct {
	SemiMajor float64       `json:"semiMajor"` // meters, along the azimuth
	SemiMinor float64       `json:"semiMinor"` // meters
	Center    geodesy.LLA   `json:"center"`    // ellipse centre
	Ring      []geodesy.LLA `json:"ring"`      // closed ring, first point repeated last
}

// Geometry holds the parameters shared by the reflection solvers.
type Geometry struct {
	GroundClearance float64 // meters subtracted from the receiver altitude
	Frequency       float64 // carrier frequency in Hz
	Order           int     // Fresnel zone number
	RingSamples     int     // points on the Fresnel ring, endpoints included
	Precision       int     // decimals kept in Fresnel ring coordinates, negative keeps all, zero means default
}

const (
	DefaultGroundClearance = 80.0
	DefaultFrequency       = 1575.42e6 // GPS L1
	DefaultOrder           = 1
	DefaultRingSamples     = 50
	DefaultPrecision       = 6

	SpeedOfLight = 299_792_458.0 // m/s
)

// DefaultGeometry returns the first-order L1 zone with 80 m ground clearance.
func DefaultGeometry() Geometry {
	return Geometry{
		GroundClearance: DefaultGroundClearance,
		Frequency:       DefaultFrequency,
		Order:           DefaultOrder,
		RingSamples:     DefaultRingSamples,
		Precision:       DefaultPrecision,
	}
}

func (g Geometry) withDefaults() Geometry {
	if g.Frequency <= 0 {
		g.Frequency = DefaultFrequency
	}
	if g.Order <= 0 {
		g.Order = DefaultOrder
	}
	if g.RingSamples < 2 {
		g.RingSamples = DefaultRingSamples
	}
	if g.Precision == 0 {
		g.Precision = DefaultPrecision
	}
	return g
}

// Wavelength returns the carrier wavelength in meters.
func (g Geometry) Wavelength() float64 {
	return SpeedOfLight / g.withDefaults().Frequency
}
