package coverage

import "math"

// Grid is a regular latitude/longitude sampling of the ground with the
// trigonometry of every coordinate precomputed. One grid is reused across
// every time sample of an evaluation and every generation of a search, so
// construction cost is paid once and lookups in the hot loop are plain
// array reads. Immutable after construction and safe for concurrent use.
type Grid struct {
	Lats []float64 // degrees, ascending
	Lons []float64 // degrees, [-180, 180)

	cosLat, sinLat []float64
	cosLon, sinLon []float64
}

// NewGrid builds a grid with latitude rows spanning [latMinDeg, latMaxDeg]
// inclusive at latStepDeg and longitude columns spanning [-180, 180) at
// lonStepDeg. 180 is excluded since it aliases -180.
func NewGrid(latMinDeg, latMaxDeg, latStepDeg, lonStepDeg float64) *Grid {
	g := &Grid{}
	for lat := latMinDeg; lat <= latMaxDeg+1e-9; lat += latStepDeg {
		g.Lats = append(g.Lats, lat)
		rad := lat * math.Pi / 180.0
		sin, cos := math.Sincos(rad)
		g.sinLat = append(g.sinLat, sin)
		g.cosLat = append(g.cosLat, cos)
	}
	for lon := -180.0; lon < 180.0-1e-9; lon += lonStepDeg {
		g.Lons = append(g.Lons, lon)
		rad := lon * math.Pi / 180.0
		sin, cos := math.Sincos(rad)
		g.sinLon = append(g.sinLon, sin)
		g.cosLon = append(g.cosLon, cos)
	}
	return g
}

// BandGrid builds the grid for a constellation of the given inclination:
// latitudes span the band the orbits can reach, clamped to the poles. An
// orbit inclined by i degrees reaches latitude min(i, 180-i), so retrograde
// inclinations mirror their prograde counterparts.
func BandGrid(inclinationDeg, latStepDeg, lonStepDeg float64) *Grid {
	reach := math.Min(inclinationDeg, 180-inclinationDeg)
	if reach < 0 {
		reach = 0
	}
	if reach > 90 {
		reach = 90
	}
	return NewGrid(-reach, reach, latStepDeg, lonStepDeg)
}

// Rows returns the number of latitude rows.
func (g *Grid) Rows() int { return len(g.Lats) }

// Points returns the total number of sample points.
func (g *Grid) Points() int { return len(g.Lats) * len(g.Lons) }
