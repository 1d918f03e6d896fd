// Package coverage evaluates the ground coverage of satellite
// constellations over a latitude/longitude grid and one orbital period.
//
// The visibility test is algebraic. For a satellite at Earth-fixed position
// r with |r| = rho, the footprint half-angle gamma_max around its subpoint
// satisfies cos(gamma_max) = x*cos(eps) + sqrt(1-x^2)*sin(eps) with
// x = (Re/rho)*cos(eps), the expansion of cos(acos(x) - eps). A ground
// point with unit vector g is covered iff dot(r, g) >= rho*cos(gamma_max),
// so the hot loop runs on multiplications and one comparison per pair, with
// no inverse trigonometry anywhere.
package coverage

import (
	"errors"
	"math"

	"github.com/gonum/floats"
	"github.com/soypat/geometry/md3"

	"github.com/aurelienhbts/leoptim/internal/orbit"
)

// ErrEmptyConstellation reports a layout with no satellites in any plane.
// Mean coverage is averaged over one orbital period, which an empty
// constellation does not have.
var ErrEmptyConstellation = errors.New("coverage: constellation has no satellites")

// Sample is one instant of a coverage time series.
type Sample struct {
	Time        float64 `json:"time_sec"`     // seconds past epoch
	CoveragePct float64 `json:"coverage_pct"` // covered share of grid points
}

// Visible reports whether a satellite at Earth-fixed position satECEF
// stands at least minElevationDeg above the horizon as seen from the given
// spherical ground coordinates. This is the single-point form of the test;
// bulk evaluation precomputes thresholds per satellite instead.
func Visible(satECEF md3.Vec, latDeg, lonDeg, minElevationDeg float64) bool {
	sinLat, cosLat := math.Sincos(latDeg * math.Pi / 180.0)
	sinLon, cosLon := math.Sincos(lonDeg * math.Pi / 180.0)
	g := md3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	return md3.Dot(satECEF, g) >= visibilityThreshold(md3.Norm(satECEF), minElevationDeg)
}

// visibilityThreshold returns the minimum dot(r, g) at which a satellite at
// distance rho from Earth's center clears the elevation mask. The returned
// value is rho*cos(gamma_max); see the package comment for the derivation.
func visibilityThreshold(rho, minElevationDeg float64) float64 {
	sinE, cosE := math.Sincos(minElevationDeg * math.Pi / 180.0)
	x := orbit.EarthRadius / rho * cosE
	return rho * (x*cosE + math.Sqrt(1-x*x)*sinE)
}

// snapshot holds the Earth-fixed geometry of one instant: satellite
// positions and their visibility thresholds.
type snapshot struct {
	pos    []md3.Vec
	thresh []float64
}

func takeSnapshot(sats []orbit.Satellite, t, minElevationDeg float64) snapshot {
	snap := snapshot{
		pos:    make([]md3.Vec, len(sats)),
		thresh: make([]float64, len(sats)),
	}
	for i, s := range sats {
		p := orbit.ECEFPosition(s, t)
		snap.pos[i] = p
		snap.thresh[i] = visibilityThreshold(md3.Norm(p), minElevationDeg)
	}
	return snap
}

// Instantaneous returns the percentage of grid points seeing at least
// opts.RequiredCount satellites at time t. Satellite geometry is computed
// once up front; the grid rows are then counted in parallel and the row
// counts summed.
func Instantaneous(sats []orbit.Satellite, t float64, g *Grid, opts Options) float64 {
	opts = opts.normalized()
	if len(sats) == 0 || g.Points() == 0 {
		return 0
	}
	snap := takeSnapshot(sats, t, opts.MinElevationDeg)
	covered := forkSum(g.Rows(), opts.Workers, func(row int) int {
		return countCoveredRow(g, snap, row, opts.RequiredCount)
	})
	return 100 * float64(covered) / float64(g.Points())
}

// countCoveredRow counts the covered points of one latitude row. The
// satellite loop short-circuits as soon as enough satellites are in view.
func countCoveredRow(g *Grid, snap snapshot, row, required int) int {
	cosLat := g.cosLat[row]
	sinLat := g.sinLat[row]
	covered := 0
	for col := range g.Lons {
		gx := cosLat * g.cosLon[col]
		gy := cosLat * g.sinLon[col]
		seen := 0
		for i, p := range snap.pos {
			if p.X*gx+p.Y*gy+p.Z*sinLat >= snap.thresh[i] {
				seen++
				if seen == required {
					covered++
					break
				}
			}
		}
	}
	return covered
}

// Series evaluates instantaneous coverage at opts.TimeSamples instants
// evenly spaced across one orbital period [0, T). The period is taken from
// the first satellite; layouts built by this module share one semi-major
// axis.
func Series(sats []orbit.Satellite, g *Grid, opts Options) ([]Sample, error) {
	opts = opts.normalized()
	if len(sats) == 0 {
		return nil, ErrEmptyConstellation
	}
	period := sats[0].Period()
	out := make([]Sample, opts.TimeSamples)
	for i := range out {
		t := period * float64(i) / float64(opts.TimeSamples)
		out[i] = Sample{Time: t, CoveragePct: Instantaneous(sats, t, g, opts)}
	}
	return out, nil
}

// Mean returns coverage averaged over one orbital period, sampled at
// opts.TimeSamples instants.
func Mean(sats []orbit.Satellite, g *Grid, opts Options) (float64, error) {
	series, err := Series(sats, g, opts)
	if err != nil {
		return 0, err
	}
	vals := make([]float64, len(series))
	for i, s := range series {
		vals[i] = s.CoveragePct
	}
	return floats.Sum(vals) / float64(len(vals)), nil
}
