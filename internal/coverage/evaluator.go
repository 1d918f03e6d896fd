package coverage

import (
	"time"

	"github.com/aurelienhbts/leoptim/internal/constellation"
	"github.com/aurelienhbts/leoptim/internal/metrics"
)

// Params fix the orbital geometry that every layout of a search shares.
type Params struct {
	PhasingFactor  float64 // Walker inter-plane phasing factor F
	InclinationDeg float64
	SemiMajorAxis  float64 // meters
}

// Evaluator scores layout vectors against a fixed geometry and grid. The
// grid is built once at construction and shared by every evaluation; it is
// read-only, so an Evaluator is safe for concurrent use.
type Evaluator struct {
	params Params
	opts   Options
	grid   *Grid
}

// NewEvaluator builds an Evaluator whose grid spans the latitude band
// reachable at params.InclinationDeg.
func NewEvaluator(params Params, opts Options) *Evaluator {
	opts = opts.normalized()
	return &Evaluator{
		params: params,
		opts:   opts,
		grid:   BandGrid(params.InclinationDeg, opts.LatStepDeg, opts.LonStepDeg),
	}
}

// Grid exposes the precomputed sampling grid.
func (e *Evaluator) Grid() *Grid { return e.grid }

// EvaluateLayout expands the layout into a constellation and returns its
// mean coverage percentage over one period together with the satellite
// count. An all-zero layout is rejected with ErrEmptyConstellation.
func (e *Evaluator) EvaluateLayout(layout constellation.Layout) (float64, int, error) {
	sats := constellation.Build(layout, e.params.PhasingFactor, e.params.InclinationDeg, e.params.SemiMajorAxis)
	if len(sats) == 0 {
		return 0, 0, ErrEmptyConstellation
	}

	start := time.Now()
	mean, err := Mean(sats, e.grid, e.opts)
	if err != nil {
		return 0, 0, err
	}
	metrics.ObserveCoverageEvaluation(time.Since(start))
	return mean, len(sats), nil
}

// EvaluateLayout is the one-shot form: it builds a throwaway Evaluator.
// Searches construct an Evaluator instead so the grid survives across
// calls.
func EvaluateLayout(layout constellation.Layout, params Params, opts Options) (float64, int, error) {
	return NewEvaluator(params, opts).EvaluateLayout(layout)
}
