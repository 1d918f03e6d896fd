// Package genetic searches the space of per-plane satellite layouts with an
// evolutionary loop: evaluate in parallel, rank, keep the elite quarter,
// refill from mutated elites. Fitness evaluations are memoized through a
// two-tier cache so re-scored elites and revisited layouts cost nothing
// after their first evaluation.
package genetic

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/aurelienhbts/leoptim/internal/cache"
	"github.com/aurelienhbts/leoptim/internal/constellation"
	"github.com/aurelienhbts/leoptim/internal/coverage"
	"github.com/aurelienhbts/leoptim/internal/fitness"
)

// Config holds the tunables of one optimization run.
type Config struct {
	Planes      int // orbital planes, fixed for the whole run
	Satellites  int // fixed total, or the starting total in variable mode
	PopSize     int
	Generations int

	MutationProb  float64 // per-plane-slot mutation probability
	MaxSatellites int     // variable mode growth cap; ignored in fixed mode

	Fitness fitness.Config
	Params  coverage.Params
	Coarse  coverage.Options // search-time evaluation resolution
	Fine    coverage.Options // finalization resolution

	Workers int   // evaluation goroutines; <1 means NumCPU
	Seed    int64 // RNG seed; 0 seeds from the clock

	// Progress, when set, is called on the engine goroutine after each
	// generation.
	Progress func(ProgressEvent)
}

// normalized fills derived defaults without touching validation failures.
func (c Config) normalized() Config {
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Validate rejects configurations the search loop cannot run.
func (c Config) Validate() error {
	if c.Planes < 1 {
		return fmt.Errorf("planes = %d, need at least 1", c.Planes)
	}
	if c.Satellites < 1 {
		return fmt.Errorf("satellites = %d, need at least 1", c.Satellites)
	}
	if c.PopSize < 2 {
		return fmt.Errorf("population size = %d, need at least 2", c.PopSize)
	}
	if c.Generations < 1 {
		return fmt.Errorf("generations = %d, need at least 1", c.Generations)
	}
	if c.MutationProb < 0 || c.MutationProb > 1 {
		return fmt.Errorf("mutation probability %.3f outside [0, 1]", c.MutationProb)
	}
	if err := c.Fitness.Validate(); err != nil {
		return fmt.Errorf("fitness config: %w", err)
	}
	if c.Fitness.Mode == fitness.ModeVariableCount && c.MaxSatellites < c.Satellites {
		return fmt.Errorf("max satellites %d below starting count %d", c.MaxSatellites, c.Satellites)
	}
	if c.Params.SemiMajorAxis <= 0 {
		return fmt.Errorf("semi-major axis %.1f must be positive", c.Params.SemiMajorAxis)
	}
	return nil
}

// ProgressEvent reports the state of the search after one generation.
type ProgressEvent struct {
	Generation   int                  `json:"generation"`
	BestScore    float64              `json:"best_score"`
	BestCoverage float64              `json:"best_coverage_pct"`
	BestLayout   constellation.Layout `json:"best_layout"`
	Satellites   int                  `json:"satellites"`
	CacheEntries int                  `json:"cache_entries"`
}

// Result is the outcome of a completed run. Coverage and score are restated
// at the fine evaluation resolution, which is why Score can differ from the
// best coarse score seen during the search.
type Result struct {
	RunID          string               `json:"run_id"`
	Mode           string               `json:"mode"`
	Layout         constellation.Layout `json:"layout"`
	Score          float64              `json:"score"`
	CoveragePct    float64              `json:"coverage_pct"`
	Satellites     int                  `json:"satellites"`
	Generations    int                  `json:"generations"`
	ElapsedSeconds float64              `json:"elapsed_seconds"`
	Cache          cache.Stats          `json:"cache"`
}

// individual pairs a layout with its latest evaluation.
type individual struct {
	layout   constellation.Layout
	score    float64
	coverage float64
}

func (ind individual) deepCopy() individual {
	return individual{
		layout:   ind.layout.Clone(),
		score:    ind.score,
		coverage: ind.coverage,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// failedScore marks individuals whose evaluation errored; they sort last
// and never become elites while any viable candidate exists.
var failedScore = math.Inf(-1)
