package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aurelienhbts/leoptim/internal/api"
	"github.com/aurelienhbts/leoptim/internal/auth"
	"github.com/aurelienhbts/leoptim/internal/genetic"
	"github.com/aurelienhbts/leoptim/internal/scenario"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("LEOPTIM_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	trustProxy := loadTrustProxy(logger)

	store := scenario.NewStore()
	var ready atomic.Bool
	srv := api.NewServer(api.Config{Addr: addr, TrustProxy: trustProxy}, logger, authCfg, store, ready.Load)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// An optional scenario runs once in the background; its result becomes
	// /api/v1/search/latest.
	if path := os.Getenv("LEOPTIM_SCENARIO"); path != "" {
		go runScenario(ctx, path, store, logger)
	}

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "trust_proxy", trustProxy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()
	ready.Store(true)

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// runScenario executes the scenario's search and publishes the result. A
// failed search only logs: the evaluation endpoints keep serving.
func runScenario(ctx context.Context, path string, store *scenario.Store, logger *slog.Logger) {
	sc, err := scenario.Load(path)
	if err != nil {
		logger.Error("scenario load failed", "path", path, "error", err)
		return
	}

	engine, err := genetic.New(sc.EngineConfig(), logger)
	if err != nil {
		logger.Error("engine configuration rejected", "path", path, "error", err)
		return
	}

	result, err := engine.Run(ctx)
	if err != nil {
		logger.Error("background search failed", "path", path, "error", err)
		return
	}
	store.SetLatest(&result)
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("LEOPTIM_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("LEOPTIM_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("LEOPTIM_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("LEOPTIM_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadTrustProxy(logger *slog.Logger) bool {
	v := os.Getenv("LEOPTIM_TRUST_PROXY")
	if v == "" {
		return false
	}
	trust, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid LEOPTIM_TRUST_PROXY value, defaulting to false", "value", v)
		return false
	}
	return trust
}
