package reflection

import (
	"fmt"
	"math"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
	"gonum.org/v1/gonum/mat"
)

// Fresnel computes the Fresnel zone ellipse for a satellite at the given
// azimuth and elevation (degrees) seen from receiver.
//
// With h the height above ground, δ = nλ/2 the path delay of zone n and
// e the elevation:
//
//	b  = sqrt(2δh·sin e) / sin e   semi-minor axis
//	a  = b / sin e                 semi-major axis
//	S0 = h / tan e                 horizontal range to the specular point
//	C  = S0 - sqrt(a² - b²)        range to the ellipse centre
//
// The ellipse is sampled over the closed interval [0, 2π], rotated to the
// azimuth and placed at the receiver altitude in the local tangent plane.
func Fresnel(receiver geodesy.LLA, azimuth, elevation float64, g Geometry) (FresnelZone, error) {
	if err := checkElevation(elevation); err != nil {
		return FresnelZone{}, err
	}
	g = g.withDefaults()

	h := receiver.Altitude - g.GroundClearance
	if h <= 0 {
		return FresnelZone{}, fmt.Errorf("%w: receiver %.2f m above ground", ErrDegenerate, h)
	}

	el, az := deg2rad(elevation), deg2rad(azimuth)
	sinEl := math.Sin(el)
	sinAz, cosAz := math.Sincos(az)

	delta := float64(g.Order) * g.Wavelength() / 2
	b := math.Sqrt(2*delta*h*sinEl) / sinEl
	a := b / sinEl
	c := h/math.Tan(el) - math.Sqrt(a*a-b*b)

	n := g.RingSamples
	ellipse := mat.NewDense(2, n, nil)
	for i := 0; i < n; i++ {
		th := 2 * math.Pi * float64(i) / float64(n-1)
		sinTh, cosTh := math.Sincos(th)
		ellipse.Set(0, i, a*cosTh)
		ellipse.Set(1, i, b*sinTh)
	}

	rotation := mat.NewDense(2, 2, []float64{
		cosAz, -sinAz,
		sinAz, cosAz,
	})

	var ring mat.Dense
	ring.Mul(rotation, ellipse)

	cx, cy := c*cosAz, c*sinAz
	offsets := make([]geodesy.NED, n)
	for i := range offsets {
		offsets[i] = geodesy.NED{North: cx + ring.At(0, i), East: cy + ring.At(1, i)}
	}
	// sin(2π) is not exactly zero; close the ring explicitly.
	offsets[n-1] = offsets[0]

	zone := FresnelZone{
		SemiMajor: a,
		SemiMinor: b,
		Center:    roundLLA(geodesy.NEDToLLA(geodesy.NED{North: cx, East: cy}, receiver), g.Precision),
		Ring:      geodesy.NEDToLLABatch(offsets, receiver),
	}
	for i := range zone.Ring {
		zone.Ring[i] = roundLLA(zone.Ring[i], g.Precision)
	}
	return zone, nil
}

func roundLLA(p geodesy.LLA, decimals int) geodesy.LLA {
	if decimals < 0 {
		return p
	}
	scale := math.Pow(10, float64(decimals))
	round := func(v float64) float64 { return math.Round(v*scale) / scale }
	return geodesy.LLA{
		Latitude:  round(p.Latitude),
		Longitude: round(p.Longitude),
		Altitude:  round(p.Altitude),
	}
}
