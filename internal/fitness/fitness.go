// Package fitness scores constellation layouts for the evolutionary search.
//
// Two scoring modes share one code path. Fixed-count searches reward
// coverage and unused planes, with a severe penalty below a coverage floor.
// Variable-count searches trade coverage against fleet size: a per-satellite
// cost ramps up with the count and is amplified once coverage saturates, so
// the search stops paying for satellites that no longer buy coverage.
package fitness

import (
	"errors"
	"fmt"

	"github.com/aurelienhbts/leoptim/internal/cache"
	"github.com/aurelienhbts/leoptim/internal/constellation"
	"github.com/aurelienhbts/leoptim/internal/metrics"
)

// Evaluator supplies mean coverage for a layout. *coverage.Evaluator
// implements it.
type Evaluator interface {
	EvaluateLayout(layout constellation.Layout) (coveragePct float64, satellites int, err error)
}

// Mode selects the scoring scheme.
type Mode int

const (
	// ModeFixedCount scores layouts whose satellite total is held constant
	// by the search operators.
	ModeFixedCount Mode = iota
	// ModeVariableCount scores layouts whose satellite total the search may
	// grow or shrink.
	ModeVariableCount
)

func (m Mode) String() string {
	switch m {
	case ModeFixedCount:
		return "fixed"
	case ModeVariableCount:
		return "variable"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Coverage levels at which the per-satellite cost is amplified, and the
// multipliers applied there.
const (
	saturationLowPct  = 99.5
	saturationHighPct = 99.9
	saturationLowMul  = 2.0
	saturationHighMul = 3.0
)

// Config enumerates every bonus and penalty term of both modes.
type Config struct {
	Mode Mode

	// Fixed-count terms.
	CoverageFloor     float64 // percent; below it the score drops to coverage-100
	RewardEmptyPlanes bool    // enables the per-empty-plane bonus
	EmptyPlaneBonus   float64 // bonus per unused plane

	// Variable-count terms.
	CoverageTarget  float64 // percent the search steers toward
	ShortfallWeight float64 // penalty per percent below target
	EmptyPlaneCoef  float64 // reward per unused plane
	CountRampLow    int     // satellite count where the cost ramp starts
	CountRampHigh   int     // satellite count where the cost ramp tops out
	CountCostLow    float64 // per-satellite cost at and below the ramp start
	CountCostHigh   float64 // per-satellite cost at and above the ramp top
}

// DefaultFixedCount returns the fixed-count configuration with the standard
// empty-plane bonus.
func DefaultFixedCount(coverageFloorPct float64) Config {
	return Config{
		Mode:              ModeFixedCount,
		CoverageFloor:     coverageFloorPct,
		RewardEmptyPlanes: true,
		EmptyPlaneBonus:   0.5,
	}
}

// DefaultVariableCount returns the variable-count configuration tuned for
// LEO fleets of tens to a few hundred satellites.
func DefaultVariableCount(coverageTargetPct float64) Config {
	return Config{
		Mode:            ModeVariableCount,
		CoverageTarget:  coverageTargetPct,
		ShortfallWeight: 2.0,
		EmptyPlaneCoef:  0.25,
		CountRampLow:    60,
		CountRampHigh:   240,
		CountCostLow:    0.01,
		CountCostHigh:   0.05,
	}
}

// Validate rejects configurations the scoring formulas cannot handle.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeFixedCount:
		if c.CoverageFloor < 0 || c.CoverageFloor > 100 {
			return fmt.Errorf("coverage floor %.2f outside [0, 100]", c.CoverageFloor)
		}
		if c.RewardEmptyPlanes && c.EmptyPlaneBonus < 0 {
			return errors.New("empty plane bonus must not be negative")
		}
	case ModeVariableCount:
		if c.CoverageTarget < 0 || c.CoverageTarget > 100 {
			return fmt.Errorf("coverage target %.2f outside [0, 100]", c.CoverageTarget)
		}
		if c.ShortfallWeight < 0 || c.EmptyPlaneCoef < 0 {
			return errors.New("shortfall weight and empty plane coefficient must not be negative")
		}
		if c.CountRampLow < 0 || c.CountRampHigh <= c.CountRampLow {
			return fmt.Errorf("count ramp [%d, %d] is not an ascending range", c.CountRampLow, c.CountRampHigh)
		}
		if c.CountCostLow <= 0 || c.CountCostHigh < c.CountCostLow {
			return errors.New("count costs must satisfy 0 < low <= high")
		}
	default:
		return fmt.Errorf("unknown mode %d", int(c.Mode))
	}
	return nil
}

// Result is one scored layout.
type Result struct {
	Coverage   float64 // mean coverage percent
	Score      float64 // fitness value
	Satellites int
}

// Function scores layouts with memoization through the two-tier cache.
type Function struct {
	cfg  Config
	eval Evaluator
}

// New builds a scoring function over the given evaluator. The config must
// already be validated.
func New(cfg Config, eval Evaluator) *Function {
	return &Function{cfg: cfg, eval: eval}
}

// Score returns the fitness of a layout, consulting the worker's local
// cache tier before computing. Fresh results are stored in the local tier
// only; the per-generation flush publishes them. A failed evaluation is
// returned as an error and never cached, so a later attempt recomputes.
func (f *Function) Score(layout constellation.Layout, local *cache.Local) (Result, error) {
	key := layout.Key()
	if entry, ok := local.Lookup(key); ok {
		return Result{Coverage: entry.Coverage, Score: entry.Score, Satellites: layout.Total()}, nil
	}

	coveragePct, sats, err := f.eval.EvaluateLayout(layout)
	if err != nil {
		return Result{}, err
	}
	metrics.IncFitnessEvaluation()

	entry := cache.Entry{Coverage: coveragePct, Score: f.ScoreFromCoverage(coveragePct, layout)}
	local.Store(key, entry)
	return Result{Coverage: entry.Coverage, Score: entry.Score, Satellites: sats}, nil
}

// ScoreFromCoverage applies the configured scoring formula to an already
// evaluated coverage figure. The finalization pass uses it to restate the
// winner's fitness at high resolution.
func (f *Function) ScoreFromCoverage(coveragePct float64, layout constellation.Layout) float64 {
	switch f.cfg.Mode {
	case ModeVariableCount:
		return f.scoreVariable(coveragePct, layout)
	default:
		return f.scoreFixed(coveragePct, layout)
	}
}

func (f *Function) scoreFixed(coveragePct float64, layout constellation.Layout) float64 {
	if coveragePct < f.cfg.CoverageFloor {
		return coveragePct - 100
	}
	score := coveragePct
	if f.cfg.RewardEmptyPlanes {
		score += f.cfg.EmptyPlaneBonus * float64(layout.EmptyPlanes())
	}
	return score
}

func (f *Function) scoreVariable(coveragePct float64, layout constellation.Layout) float64 {
	n := layout.Total()
	score := coveragePct - f.countCost(n, coveragePct)*float64(n)
	score += f.cfg.EmptyPlaneCoef * float64(layout.EmptyPlanes())
	if shortfall := f.cfg.CoverageTarget - coveragePct; shortfall > 0 {
		score -= shortfall * f.cfg.ShortfallWeight
	}
	return score
}

// countCost returns the per-satellite cost: constant below the ramp, linear
// through it, constant above, amplified near coverage saturation.
func (f *Function) countCost(n int, coveragePct float64) float64 {
	var cost float64
	switch {
	case n <= f.cfg.CountRampLow:
		cost = f.cfg.CountCostLow
	case n >= f.cfg.CountRampHigh:
		cost = f.cfg.CountCostHigh
	default:
		frac := float64(n-f.cfg.CountRampLow) / float64(f.cfg.CountRampHigh-f.cfg.CountRampLow)
		cost = f.cfg.CountCostLow + frac*(f.cfg.CountCostHigh-f.cfg.CountCostLow)
	}

	switch {
	case coveragePct >= saturationHighPct:
		cost *= saturationHighMul
	case coveragePct >= saturationLowPct:
		cost *= saturationLowMul
	}
	return cost
}
