package orbit

import (
	"errors"
	"math"

	"github.com/soypat/geometry/md3"
)

// ErrDegeneratePosition reports a zero-length position vector, for which
// latitude and longitude are undefined.
var ErrDegeneratePosition = errors.New("orbit: zero-length position vector")

// ECEFFromECI rotates an inertial-frame vector into the Earth-fixed frame at
// t seconds past epoch. The Earth-fixed frame leads the inertial frame by
// theta = OmegaEarth*t, so coordinates transform by a rotation of -theta
// about the polar axis:
//
//	x' = x*cos(theta) + y*sin(theta)
//	y' = -x*sin(theta) + y*cos(theta)
//	z' = z
func ECEFFromECI(r md3.Vec, t float64) md3.Vec {
	sinT, cosT := math.Sincos(OmegaEarth * t)
	return md3.Vec{
		X: r.X*cosT + r.Y*sinT,
		Y: -r.X*sinT + r.Y*cosT,
		Z: r.Z,
	}
}

// ECIFromECEF is the inverse of ECEFFromECI: a rotation of +OmegaEarth*t
// about the polar axis.
func ECIFromECEF(r md3.Vec, t float64) md3.Vec {
	sinT, cosT := math.Sincos(OmegaEarth * t)
	return md3.Vec{
		X: r.X*cosT - r.Y*sinT,
		Y: r.X*sinT + r.Y*cosT,
		Z: r.Z,
	}
}

// LatLonFromECEF converts an Earth-fixed position to spherical (geocentric)
// latitude and longitude in degrees. A zero-length vector is rejected rather
// than letting NaN propagate into downstream geometry.
func LatLonFromECEF(r md3.Vec) (latDeg, lonDeg float64, err error) {
	n := md3.Norm(r)
	if n == 0 {
		return 0, 0, ErrDegeneratePosition
	}
	lat := math.Asin(r.Z / n)
	lon := math.Atan2(r.Y, r.X)
	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi, nil
}
