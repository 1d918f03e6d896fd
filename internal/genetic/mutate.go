package genetic

import (
	"math/rand"

	"github.com/aurelienhbts/leoptim/internal/constellation"
	"github.com/aurelienhbts/leoptim/internal/fitness"
)

// Operator mix for variable-count mutation. The add and remove shares lean
// toward growth while best coverage trails the target and toward shrinkage
// once it exceeds it; the move operator takes the remainder.
const (
	baseAddProb    = 0.3
	baseRemoveProb = 0.3
	growthGain     = 0.5
	minOpProb      = 0.05
	maxOpProb      = 0.45
)

// randomLayout scatters satellites over planes by drawing one uniform plane
// index per satellite.
func randomLayout(rng *rand.Rand, planes, satellites int) constellation.Layout {
	l := make(constellation.Layout, planes)
	for i := 0; i < satellites; i++ {
		l[rng.Intn(planes)]++
	}
	return l
}

func (e *Engine) mutate(l constellation.Layout, bestCoverage float64) {
	if e.cfg.Fitness.Mode == fitness.ModeVariableCount {
		e.mutateVariable(l, bestCoverage)
		return
	}
	e.mutateFixed(l)
}

// mutateFixed runs one mutation trial per plane slot: with probability
// MutationProb, move one satellite from a random source plane to a random
// destination. Empty sources skip the trial, so the total never changes.
func (e *Engine) mutateFixed(l constellation.Layout) {
	for trial := 0; trial < len(l); trial++ {
		if e.rng.Float64() >= e.cfg.MutationProb {
			continue
		}
		src := e.rng.Intn(len(l))
		if l[src] == 0 {
			continue
		}
		dst := e.rng.Intn(len(l))
		l[src]--
		l[dst]++
	}
}

// mutateVariable runs one trial per plane slot choosing between add, remove
// and move. Adds respect the MaxSatellites cap; removes never take the
// fleet below one satellite.
func (e *Engine) mutateVariable(l constellation.Layout, bestCoverage float64) {
	pAdd, pRemove := e.growthBias(bestCoverage)
	for trial := 0; trial < len(l); trial++ {
		if e.rng.Float64() >= e.cfg.MutationProb {
			continue
		}
		switch op := e.rng.Float64(); {
		case op < pAdd:
			if l.Total() < e.cfg.MaxSatellites {
				l[e.rng.Intn(len(l))]++
			}
		case op < pAdd+pRemove:
			src := e.rng.Intn(len(l))
			if l[src] > 0 && l.Total() > 1 {
				l[src]--
			}
		default:
			src := e.rng.Intn(len(l))
			if l[src] == 0 {
				continue
			}
			l[src]--
			l[e.rng.Intn(len(l))]++
		}
	}
}

// growthBias shifts probability mass between add and remove based on the
// gap between the best coverage seen and the target. One percentage point
// of gap moves growthGain/100 of mass; both shares stay inside
// [minOpProb, maxOpProb] so no operator ever disappears.
func (e *Engine) growthBias(bestCoverage float64) (pAdd, pRemove float64) {
	gap := (e.cfg.Fitness.CoverageTarget - bestCoverage) / 100
	if gap > 1 {
		gap = 1
	} else if gap < -1 {
		gap = -1
	}

	pAdd = clampFloat(baseAddProb+growthGain*gap, minOpProb, maxOpProb)
	pRemove = clampFloat(baseRemoveProb-growthGain*gap, minOpProb, maxOpProb)
	return pAdd, pRemove
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
