// Package geodesy converts between local north-east-down offsets and
// WGS-84 geodetic coordinates.
package geodesy

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// WGS-84 ellipsoid.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563

	eccentricitySq = Flattening * (2 - Flattening)

	ecefIterations = 10
)

// LLA is a geodetic position. Latitude and longitude are in degrees,
// altitude in meters above the ellipsoid.
type LLA struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt"`
}

// NED is an offset in meters in the local north-east-down frame.
type NED struct {
	North, East, Down float64
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// ToECEF returns the earth-centred earth-fixed coordinates of p.
func ToECEF(p LLA) *mat.VecDense {
	lat, lon := deg2rad(p.Latitude), deg2rad(p.Longitude)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	n := primeVerticalRadius(sinLat)
	return mat.NewVecDense(3, []float64{
		(n + p.Altitude) * cosLat * cosLon,
		(n + p.Altitude) * cosLat * sinLon,
		(n*(1-eccentricitySq) + p.Altitude) * sinLat,
	})
}

// FromECEF converts earth-centred earth-fixed coordinates to geodetic ones.
func FromECEF(x, y, z float64) LLA {
	lon := math.Atan2(y, x)
	p := math.Hypot(x, y)

	lat := math.Atan2(z, p*(1-eccentricitySq))
	var alt float64
	for i := 0; i < ecefIterations; i++ {
		sinLat, cosLat := math.Sincos(lat)
		n := primeVerticalRadius(sinLat)
		if math.Abs(cosLat) > 1e-12 {
			alt = p/cosLat - n
		} else {
			alt = math.Abs(z) - n*(1-eccentricitySq)
		}
		lat = math.Atan2(z, p*(1-eccentricitySq*n/(n+alt)))
	}

	return LLA{Latitude: rad2deg(lat), Longitude: rad2deg(lon), Altitude: alt}
}

// NEDToECEFRotation returns the matrix rotating local north-east-down
// vectors at ref into the earth-fixed frame.
func NEDToECEFRotation(ref LLA) *mat.Dense {
	sinLat, cosLat := math.Sincos(deg2rad(ref.Latitude))
	sinLon, cosLon := math.Sincos(deg2rad(ref.Longitude))

	return mat.NewDense(3, 3, []float64{
		-sinLat * cosLon, -sinLon, -cosLat * cosLon,
		-sinLat * sinLon, cosLon, -cosLat * sinLon,
		cosLat, 0, -sinLat,
	})
}

// NEDToLLA converts a north-east-down offset from ref to geodetic coordinates.
func NEDToLLA(ned NED, ref LLA) LLA {
	return NEDToLLABatch([]NED{ned}, ref)[0]
}

// NEDToLLABatch converts many offsets sharing the same reference with a
// single rotation.
func NEDToLLABatch(offsets []NED, ref LLA) []LLA {
	if len(offsets) == 0 {
		return nil
	}

	local := mat.NewDense(3, len(offsets), nil)
	for i, o := range offsets {
		local.Set(0, i, o.North)
		local.Set(1, i, o.East)
		local.Set(2, i, o.Down)
	}

	var ecef mat.Dense
	ecef.Mul(NEDToECEFRotation(ref), local)

	origin := ToECEF(ref)
	out := make([]LLA, len(offsets))
	for i := range offsets {
		out[i] = FromECEF(
			ecef.At(0, i)+origin.AtVec(0),
			ecef.At(1, i)+origin.AtVec(1),
			ecef.At(2, i)+origin.AtVec(2),
		)
	}
	return out
}

func primeVerticalRadius(sinLat float64) float64 {
	return SemiMajorAxis / math.Sqrt(1-eccentricitySq*sinLat*sinLat)
}
