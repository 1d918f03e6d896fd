package genetic

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aurelienhbts/leoptim/internal/cache"
	"github.com/aurelienhbts/leoptim/internal/coverage"
	"github.com/aurelienhbts/leoptim/internal/fitness"
	"github.com/aurelienhbts/leoptim/internal/metrics"
)

// ErrNoViableLayout reports a run in which every candidate failed
// evaluation, leaving nothing to finalize.
var ErrNoViableLayout = errors.New("genetic: no layout evaluated successfully")

// Engine drives one optimization run. It owns the fitness cache and the
// evaluation workers; build a fresh Engine per run so no cached score leaks
// between searches with different geometry or scoring.
type Engine struct {
	cfg    Config
	cache  *cache.FitnessCache
	fit    *fitness.Function
	fine   *coverage.Evaluator
	logger *slog.Logger
	rng    *rand.Rand
}

// New validates the configuration and assembles an Engine around it.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()

	c := cache.New(logger)
	coarse := coverage.NewEvaluator(cfg.Params, cfg.Coarse)

	return &Engine{
		cfg:    cfg,
		cache:  c,
		fit:    fitness.New(cfg.Fitness, coarse),
		fine:   coverage.NewEvaluator(cfg.Params, cfg.Fine),
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run executes the full search. On context cancellation it stops at the
// next generation boundary and returns ctx.Err. For a fixed Seed the
// returned layout is deterministic: selection is a stable sort, mutation
// draws happen on this goroutine only, and the parallel evaluation never
// touches the RNG.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	e.logger.Info("search starting",
		"mode", e.cfg.Fitness.Mode.String(),
		"planes", e.cfg.Planes,
		"satellites", e.cfg.Satellites,
		"population", e.cfg.PopSize,
		"generations", e.cfg.Generations,
		"workers", e.cfg.Workers,
		"seed", e.cfg.Seed,
	)

	pop := e.initialPopulation()
	locals := make([]*cache.Local, e.cfg.Workers)
	for i := range locals {
		locals[i] = e.cache.NewLocal()
	}

	best := individual{score: failedScore}
	for gen := 0; gen < e.cfg.Generations; gen++ {
		select {
		case <-ctx.Done():
			metrics.IncSearch("canceled")
			e.logger.Warn("search canceled", "generation", gen)
			return Result{}, ctx.Err()
		default:
		}

		genStart := time.Now()
		e.evaluatePopulation(pop, locals)
		e.cache.Flush(locals...)

		sort.SliceStable(pop, func(i, j int) bool { return pop[i].score > pop[j].score })
		if pop[0].score > best.score {
			best = pop[0].deepCopy()
			metrics.SetBestFitness(best.score)
			metrics.SetBestCoverage(best.coverage)
		}

		metrics.ObserveGeneration(time.Since(genStart))
		e.logger.Debug("generation complete",
			"generation", gen,
			"best_score", best.score,
			"best_coverage_pct", best.coverage,
			"cache_entries", e.cache.Len(),
			"duration_ms", time.Since(genStart).Milliseconds(),
		)
		if e.cfg.Progress != nil {
			e.cfg.Progress(ProgressEvent{
				Generation:   gen,
				BestScore:    best.score,
				BestCoverage: best.coverage,
				BestLayout:   best.layout.Clone(),
				Satellites:   best.layout.Total(),
				CacheEntries: e.cache.Len(),
			})
		}

		if gen < e.cfg.Generations-1 {
			pop = e.reproduce(pop, best.coverage)
		}
	}

	result, err := e.finalize(best, start)
	if err != nil {
		metrics.IncSearch("failed")
		return Result{}, err
	}
	metrics.IncSearch("completed")
	e.logger.Info("search complete",
		"run_id", result.RunID,
		"layout", result.Layout.Key(),
		"score", result.Score,
		"coverage_pct", result.CoveragePct,
		"satellites", result.Satellites,
		"cache_entries", result.Cache.Entries,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// initialPopulation draws PopSize random layouts, each scattering the
// starting satellite count over the planes uniformly.
func (e *Engine) initialPopulation() []individual {
	pop := make([]individual, e.cfg.PopSize)
	for i := range pop {
		pop[i] = individual{layout: randomLayout(e.rng, e.cfg.Planes, e.cfg.Satellites)}
	}
	return pop
}

// evaluatePopulation scores every individual through a fixed worker pool.
// Each worker owns one local cache tier for the whole run; each population
// index is handled by exactly one worker, so result writes need no lock.
// The function returns only after all workers drained the queue, which is
// the barrier the per-generation flush relies on.
func (e *Engine) evaluatePopulation(pop []individual, locals []*cache.Local) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func(local *cache.Local) {
			defer wg.Done()
			for idx := range jobs {
				res, err := e.fit.Score(pop[idx].layout, local)
				if err != nil {
					e.logger.Warn("layout evaluation failed",
						"layout", pop[idx].layout.Key(),
						"error", err,
					)
					pop[idx].score = failedScore
					pop[idx].coverage = 0
					continue
				}
				pop[idx].score = res.Score
				pop[idx].coverage = res.Coverage
			}
		}(locals[w])
	}

	for idx := range pop {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
}

// reproduce builds the next generation: the elite quarter survives
// verbatim, variable mode injects one fresh random layout, and the rest are
// mutated clones of random elites.
func (e *Engine) reproduce(pop []individual, bestCoverage float64) []individual {
	eliteCount := clampInt(len(pop)/4, 1, len(pop))
	next := make([]individual, 0, len(pop))

	for i := 0; i < eliteCount && len(next) < len(pop); i++ {
		next = append(next, pop[i].deepCopy())
	}

	if e.cfg.Fitness.Mode == fitness.ModeVariableCount && len(next) < len(pop) {
		next = append(next, individual{layout: randomLayout(e.rng, e.cfg.Planes, e.cfg.Satellites)})
	}

	for len(next) < len(pop) {
		parent := pop[e.rng.Intn(eliteCount)]
		child := parent.layout.Clone()
		e.mutate(child, bestCoverage)
		next = append(next, individual{layout: child})
	}
	return next
}

// finalize restates the winner at the fine evaluation resolution and stamps
// the run.
func (e *Engine) finalize(best individual, start time.Time) (Result, error) {
	if best.layout == nil || math.IsInf(best.score, -1) {
		return Result{}, ErrNoViableLayout
	}

	finePct, sats, err := e.fine.EvaluateLayout(best.layout)
	if err != nil {
		return Result{}, err
	}

	return Result{
		RunID:          uuid.NewString(),
		Mode:           e.cfg.Fitness.Mode.String(),
		Layout:         best.layout,
		Score:          e.fit.ScoreFromCoverage(finePct, best.layout),
		CoveragePct:    finePct,
		Satellites:     sats,
		Generations:    e.cfg.Generations,
		ElapsedSeconds: time.Since(start).Seconds(),
		Cache:          e.cache.Stats(),
	}, nil
}
