// Package orbit provides idealized circular-orbit kinematics for LEO
// constellation studies.
//
// Satellites follow uniform circular Keplerian motion around a spherical
// Earth: no J2, no drag, no eccentricity. A position is obtained by applying
// the rotation chain Rz(RAAN)·Rx(inclination)·Rz(u) to the vector (a, 0, 0),
// where the in-plane angle u advances at the mean motion n = sqrt(mu/a^3).
// The Earth-fixed frame rotates uniformly at OmegaEarth about the polar
// axis; no GMST, nutation or polar motion terms are applied, consistent with
// the idealized force model. Time is measured in seconds past an arbitrary
// epoch at which the inertial and Earth-fixed frames coincide.
package orbit

import (
	"math"

	"github.com/soypat/geometry/md3"
)

const (
	// MuEarth is Earth's gravitational parameter in m^3/s^2.
	MuEarth = 3.986004418e14

	// EarthRadius is Earth's mean radius in meters (spherical model).
	EarthRadius = 6371000.0

	// OmegaEarth is Earth's sidereal rotation rate in rad/s.
	OmegaEarth = 7.2921150e-5
)

// Satellite describes one satellite on an idealized circular orbit.
// It is an immutable value type; all angles are in radians.
type Satellite struct {
	SemiMajorAxis float64 // meters, must exceed EarthRadius
	Inclination   float64 // radians, [0, pi]
	RAAN          float64 // right ascension of the ascending node, [0, 2pi)
	MeanAnomaly   float64 // mean anomaly at epoch, [0, 2pi)
}

// NewSatellite builds a Satellite, wrapping RAAN and mean anomaly into
// [0, 2pi).
func NewSatellite(semiMajorAxis, inclination, raan, meanAnomaly float64) Satellite {
	return Satellite{
		SemiMajorAxis: semiMajorAxis,
		Inclination:   inclination,
		RAAN:          WrapTwoPi(raan),
		MeanAnomaly:   WrapTwoPi(meanAnomaly),
	}
}

// MeanMotion returns the orbital angular rate n = sqrt(mu/a^3) in rad/s.
func (s Satellite) MeanMotion() float64 {
	a := s.SemiMajorAxis
	return math.Sqrt(MuEarth / (a * a * a))
}

// Period returns the orbital period 2*pi*sqrt(a^3/mu) in seconds.
func (s Satellite) Period() float64 {
	a := s.SemiMajorAxis
	return 2 * math.Pi * math.Sqrt(a*a*a/MuEarth)
}

// ECIPosition returns the satellite position t seconds past epoch in the
// inertial frame. The rotation chain Rz(RAAN)·Rx(incl)·Rz(u) applied to
// (a, 0, 0) is written out component-wise; this runs inside the coverage
// hot loop.
func ECIPosition(s Satellite, t float64) md3.Vec {
	u := s.MeanAnomaly + s.MeanMotion()*t
	sinU, cosU := math.Sincos(u)
	sinI, cosI := math.Sincos(s.Inclination)
	sinO, cosO := math.Sincos(s.RAAN)

	a := s.SemiMajorAxis
	return md3.Vec{
		X: a * (cosU*cosO - sinU*cosI*sinO),
		Y: a * (cosU*sinO + sinU*cosI*cosO),
		Z: a * sinU * sinI,
	}
}

// ECEFPosition returns the satellite position t seconds past epoch in the
// rotating Earth-fixed frame.
func ECEFPosition(s Satellite, t float64) md3.Vec {
	return ECEFFromECI(ECIPosition(s, t), t)
}

// WrapTwoPi wraps an angle in radians into [0, 2pi).
func WrapTwoPi(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
