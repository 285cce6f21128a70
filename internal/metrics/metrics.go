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
			Name: "skywatch_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skywatch_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	passSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skywatch_pass_search_duration_seconds",
			Help:    "Wall time of one pass search.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"kind"},
	)

	passesFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skywatch_passes_found_total",
			Help: "Total passes emitted by searches.",
		},
	)

	propagationCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skywatch_propagation_calls_total",
			Help: "Total SGP4 propagation calls.",
		},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_cache_hits_total",
			Help: "Cache hits by cache name.",
		},
		[]string{"cache"},
	)

	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_cache_misses_total",
			Help: "Cache misses by cache name.",
		},
		[]string{"cache"},
	)

	cacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skywatch_cache_entries",
			Help: "Current entry count by cache name.",
		},
		[]string{"cache"},
	)

	dispatchJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_dispatch_jobs_total",
			Help: "Dispatcher jobs by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	dispatchWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skywatch_dispatch_workers",
			Help: "Number of dispatcher workers running.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		passSearchDuration,
		passesFoundTotal,
		propagationCallsTotal,
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEntries,
		dispatchJobsTotal,
		dispatchWorkers,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePassSearch records the wall time of one pass search.
// kind is "elevation" or "swath".
func ObservePassSearch(kind string, d time.Duration) {
	passSearchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddPassesFound adds to the emitted-passes counter.
func AddPassesFound(n int) {
	passesFoundTotal.Add(float64(n))
}

// AddPropagationCalls adds to the SGP4 call counter.
func AddPropagationCalls(n int) {
	propagationCallsTotal.Add(float64(n))
}

// IncCacheHit increments the hit counter for the named cache.
func IncCacheHit(cache string) {
	cacheHitsTotal.WithLabelValues(cache).Inc()
}

// IncCacheMiss increments the miss counter for the named cache.
func IncCacheMiss(cache string) {
	cacheMissesTotal.WithLabelValues(cache).Inc()
}

// SetCacheEntries publishes the current entry count for the named cache.
func SetCacheEntries(cache string, n int) {
	cacheEntries.WithLabelValues(cache).Set(float64(n))
}

// IncJob counts one dispatcher job completion.
func IncJob(jobType string, success bool) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	dispatchJobsTotal.WithLabelValues(jobType, outcome).Inc()
}

// SetDispatchWorkers publishes the dispatcher worker count.
func SetDispatchWorkers(n int) {
	dispatchWorkers.Set(float64(n))
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

// knownRoutes is the fixed route set exposed as metric labels. Anything
// else (bots, scanners, typos) collapses to "other" so path cardinality
// stays bounded.
var knownRoutes = map[string]bool{
	"/healthz":                  true,
	"/readyz":                   true,
	"/metrics":                  true,
	"/":                         true,
	"/api/v1/passes":            true,
	"/api/v1/passes/swath":      true,
	"/api/v1/positions":         true,
	"/api/v1/position/geodetic": true,
	"/api/v1/cache/clear":       true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
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
