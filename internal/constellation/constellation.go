// Package constellation expands per-plane satellite count vectors into
// Walker-Delta constellations.
package constellation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aurelienhbts/leoptim/internal/orbit"
)

// Layout is a per-orbital-plane satellite count vector: element p holds the
// number of satellites in plane p+1, and the slice length fixes the number
// of planes. Layouts are both the genotype of the layout search and the
// memoization key for fitness caching.
type Layout []int

// Total returns the number of satellites across all planes.
func (l Layout) Total() int {
	n := 0
	for _, c := range l {
		n += c
	}
	return n
}

// EmptyPlanes returns how many planes carry no satellites.
func (l Layout) EmptyPlanes() int {
	n := 0
	for _, c := range l {
		if c == 0 {
			n++
		}
	}
	return n
}

// Clone returns an independent copy. Offspring must never alias their
// parent's backing array.
func (l Layout) Clone() Layout {
	c := make(Layout, len(l))
	copy(c, l)
	return c
}

// Key returns the exact cache key for this layout. Keys are order and
// length sensitive: [1 2] and [2 1] differ, as do [1 0] and [1].
func (l Layout) Key() string {
	var b strings.Builder
	b.Grow(len(l) * 4)
	for i, c := range l {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}

// Validate rejects layouts no constellation can be built from.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("layout has no planes")
	}
	for i, c := range l {
		if c < 0 {
			return fmt.Errorf("plane %d has negative count %d", i+1, c)
		}
	}
	return nil
}

// Build expands a layout into satellites following the generalized
// Walker-Delta pattern. Plane p of P (1-based) sits at RAAN 2*pi*p/P; the
// s-th of the plane's S satellites sits at mean anomaly
// 2*pi*(s/S + F*p/(S*P)), where F is the inter-plane phasing factor.
// Planes with a zero count contribute nothing, so an all-zero layout yields
// an empty slice.
func Build(layout Layout, phasing, inclinationDeg, semiMajorAxis float64) []orbit.Satellite {
	planes := len(layout)
	inclination := inclinationDeg * math.Pi / 180.0

	sats := make([]orbit.Satellite, 0, layout.Total())
	for p := 1; p <= planes; p++ {
		count := layout[p-1]
		if count == 0 {
			continue
		}
		raan := 2 * math.Pi * float64(p) / float64(planes)
		for s := 1; s <= count; s++ {
			m0 := 2 * math.Pi * (float64(s)/float64(count) + phasing*float64(p)/float64(count*planes))
			sats = append(sats, orbit.NewSatellite(semiMajorAxis, inclination, raan, m0))
		}
	}
	return sats
}

// Uniform returns the layout that places perPlane satellites in each of
// planes planes.
func Uniform(planes, perPlane int) Layout {
	l := make(Layout, planes)
	for i := range l {
		l[i] = perPlane
	}
	return l
}
