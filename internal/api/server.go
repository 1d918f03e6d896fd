// Package api serves the layout evaluation HTTP API consumed by external
// renderers and notebooks.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aurelienhbts/leoptim/internal/auth"
	"github.com/aurelienhbts/leoptim/internal/health"
	"github.com/aurelienhbts/leoptim/internal/httputil"
	"github.com/aurelienhbts/leoptim/internal/metrics"
	"github.com/aurelienhbts/leoptim/internal/scenario"
)

// Config holds server settings beyond the dependency wiring.
type Config struct {
	Addr       string
	TrustProxy bool // trust X-Forwarded-For / X-Real-IP in request logs
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	addr       httputil.AddrResolver
}

// NewServer creates a configured HTTP server. store supplies the latest
// search result and may be empty; ready gates the readiness probe.
func NewServer(cfg Config, logger *slog.Logger, authCfg auth.Config, store *scenario.Store, ready func() bool) *Server {
	h := &handlers{store: store, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/evaluate", h.evaluate)
	mux.HandleFunc("POST /api/v1/constellation", h.constellation)
	mux.HandleFunc("POST /api/v1/coverage/series", h.coverageSeries)
	mux.HandleFunc("GET /api/v1/search/latest", h.searchLatest)

	srv := &Server{
		logger: logger,
		addr:   httputil.AddrResolver{TrustProxy: cfg.TrustProxy},
	}

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = srv.loggingMiddleware(handler)
	handler = metrics.Middleware(handler)

	srv.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		duration := time.Since(start)
		level := slog.LevelInfo
		if probePath(r.URL.Path) {
			level = slog.LevelDebug
		}

		s.logger.Log(r.Context(), level, "request",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(sr.statusCode),
			"duration_ms", duration.Milliseconds(),
			"remote_ip", s.addr.ClientIP(r),
		)
	})
}
