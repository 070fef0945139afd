package reflection

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
)

// ErrDegenerate is returned when the line of sight cannot produce a
// reflection, e.g. a satellite on or below the horizon.
var ErrDegenerate = errors.New("degenerate reflection geometry")

func checkElevation(elevation float64) error {
	if math.IsNaN(elevation) || elevation <= 0 || elevation > 90 {
		return fmt.Errorf("%w: elevation %v", ErrDegenerate, elevation)
	}
	return nil
}

// SpecularPoint returns the ground point where the signal from a satellite
// at the given azimuth and elevation (degrees) reflects towards the receiver.
// The horizontal offset is (altitude - ground clearance) / tan(elevation)
// along the azimuth, on a flat local tangent plane at the receiver.
func SpecularPoint(receiver geodesy.LLA, azimuth, elevation float64, g Geometry) (geodesy.LLA, error) {
	if err := checkElevation(elevation); err != nil {
		return geodesy.LLA{}, err
	}

	h := receiver.Altitude - g.GroundClearance
	if h <= 0 {
		return geodesy.LLA{}, fmt.Errorf("%w: receiver %.2f m above ground", ErrDegenerate, h)
	}

	el, az := deg2rad(elevation), deg2rad(azimuth)
	sinAz, cosAz := math.Sincos(az)

	sp := geodesy.NEDToLLA(geodesy.NED{
		North: h * cosAz / math.Tan(el),
		East:  h * sinAz / math.Tan(el),
		Down:  receiver.Altitude,
	}, receiver)

	if math.IsNaN(sp.Latitude) || math.IsNaN(sp.Longitude) {
		return geodesy.LLA{}, fmt.Errorf("%w: non-finite result", ErrDegenerate)
	}
	return sp, nil
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
