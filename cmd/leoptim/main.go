// Command leoptim runs one constellation layout search: it loads a scenario
// TOML file, evolves layouts until the generation budget is spent, and
// prints the winning layout with its high-resolution coverage as JSON on
// stdout. Logs go to stderr so the output stays pipeable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aurelienhbts/leoptim/internal/genetic"
	"github.com/aurelienhbts/leoptim/internal/metrics"
	"github.com/aurelienhbts/leoptim/internal/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "", "scenario TOML file (required)")
	seed := flag.Int64("seed", 0, "override the scenario's RNG seed (0 keeps it)")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address during the run (e.g. :9090)")
	verbose := flag.Bool("v", false, "log per-generation progress at INFO instead of DEBUG")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: leoptim -scenario <file.toml> [-seed N] [-metrics :9090] [-v]")
		os.Exit(2)
	}

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Error("scenario load failed", "error", err)
		os.Exit(1)
	}

	cfg := sc.EngineConfig()
	if *seed != 0 {
		cfg.Seed = *seed
	}
	cfg.Progress = func(ev genetic.ProgressEvent) {
		logger.Info("generation",
			"generation", ev.Generation,
			"best_score", ev.BestScore,
			"best_coverage_pct", ev.BestCoverage,
			"best_layout", ev.BestLayout.Key(),
			"satellites", ev.Satellites,
			"cache_entries", ev.CacheEntries,
		)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("GET /metrics", metrics.Handler())
			logger.Info("metrics listener starting", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()
	}

	engine, err := genetic.New(cfg, logger)
	if err != nil {
		logger.Error("engine configuration rejected", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := engine.Run(ctx)
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encoding result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
