// Package metrics exposes Prometheus instrumentation for the coverage
// engine, the fitness cache and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leoptim_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leoptim_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	coverageEvaluationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leoptim_coverage_evaluation_seconds",
			Help:    "Wall time of one mean-coverage evaluation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	fitnessEvaluationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leoptim_fitness_evaluations_total",
			Help: "Fitness evaluations actually computed (cache misses).",
		},
	)

	fitnessCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leoptim_fitness_cache_hits_total",
			Help: "Fitness cache hits by tier.",
		},
		[]string{"tier"},
	)

	fitnessCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leoptim_fitness_cache_misses_total",
			Help: "Lookups that missed both cache tiers.",
		},
	)

	fitnessCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leoptim_fitness_cache_entries",
			Help: "Entries held by the shared fitness cache tier.",
		},
	)

	fitnessCacheFlushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leoptim_fitness_cache_flushes_total",
			Help: "Per-generation merges of worker-local tiers into the shared tier.",
		},
	)

	generationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leoptim_generation_seconds",
			Help:    "Wall time of one evolutionary generation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	searchBestFitness = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leoptim_search_best_fitness",
			Help: "Best fitness seen so far by the running search.",
		},
	)

	searchBestCoverage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leoptim_search_best_coverage_pct",
			Help: "Mean coverage of the best layout seen so far, percent.",
		},
	)

	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leoptim_searches_total",
			Help: "Completed optimization runs by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(coverageEvaluationSeconds)
	prometheus.MustRegister(fitnessEvaluationsTotal)
	prometheus.MustRegister(fitnessCacheHitsTotal)
	prometheus.MustRegister(fitnessCacheMissesTotal)
	prometheus.MustRegister(fitnessCacheEntries)
	prometheus.MustRegister(fitnessCacheFlushesTotal)
	prometheus.MustRegister(generationSeconds)
	prometheus.MustRegister(searchBestFitness)
	prometheus.MustRegister(searchBestCoverage)
	prometheus.MustRegister(searchesTotal)
}

// ObserveCoverageEvaluation records the wall time of one mean-coverage
// evaluation.
func ObserveCoverageEvaluation(d time.Duration) {
	coverageEvaluationSeconds.Observe(d.Seconds())
}

// IncFitnessEvaluation counts a fitness score that had to be computed.
func IncFitnessEvaluation() {
	fitnessEvaluationsTotal.Inc()
}

// IncCacheHit counts a fitness cache hit on the given tier ("local" or
// "shared").
func IncCacheHit(tier string) {
	fitnessCacheHitsTotal.WithLabelValues(tier).Inc()
}

// IncCacheMiss counts a lookup that missed both tiers.
func IncCacheMiss() {
	fitnessCacheMissesTotal.Inc()
}

// SetCacheEntries publishes the shared tier's entry count.
func SetCacheEntries(n int) {
	fitnessCacheEntries.Set(float64(n))
}

// IncCacheFlush counts one merge of worker-local tiers into the shared tier.
func IncCacheFlush() {
	fitnessCacheFlushesTotal.Inc()
}

// ObserveGeneration records the wall time of one evolutionary generation.
func ObserveGeneration(d time.Duration) {
	generationSeconds.Observe(d.Seconds())
}

// SetBestFitness publishes the best fitness seen so far.
func SetBestFitness(v float64) {
	searchBestFitness.Set(v)
}

// SetBestCoverage publishes the coverage of the best layout seen so far.
func SetBestCoverage(pct float64) {
	searchBestCoverage.Set(pct)
}

// IncSearch counts a finished optimization run; outcome is "completed",
// "canceled" or "failed".
func IncSearch(outcome string) {
	searchesTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the label values requests may carry; anything else
// collapses to "other" so scanners cannot inflate label cardinality.
var knownRoutes = map[string]string{
	"/":                       "/",
	"/healthz":                "/healthz",
	"/readyz":                 "/readyz",
	"/metrics":                "/metrics",
	"/api/v1/evaluate":        "/api/v1/evaluate",
	"/api/v1/constellation":   "/api/v1/constellation",
	"/api/v1/coverage/series": "/api/v1/coverage/series",
	"/api/v1/search/latest":   "/api/v1/search/latest",
}

func normalizeRoute(path string) string {
	if route, ok := knownRoutes[path]; ok {
		return route
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
