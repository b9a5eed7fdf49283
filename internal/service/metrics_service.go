package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the
// registration API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scanRecords     prometheus.Histogram
	decryptFailures prometheus.Counter
	conflictTotal   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	scanRecords := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dedupe_scan_records",
		Help:    "Number of stored records decrypted per duplicate check",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	decryptFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dedupe_decrypt_failures_total",
		Help: "Stored records skipped during duplicate checks because decryption failed",
	})

	conflictTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_conflicts_total",
		Help: "Registrations rejected as duplicates, by verdict kind",
	}, []string{"kind"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, scanRecords, decryptFailures, conflictTotal, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scanRecords:     scanRecords,
		decryptFailures: decryptFailures,
		conflictTotal:   conflictTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records latency and count for a handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": fmt.Sprintf("%d", status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveDuplicateScan records the size of a decrypt-scan and how many
// records were skipped as undecryptable.
func (s *MetricsService) ObserveDuplicateScan(scanned, skipped int) {
	s.scanRecords.Observe(float64(scanned))
	if skipped > 0 {
		s.decryptFailures.Add(float64(skipped))
	}
}

// IncConflict counts a rejected registration by verdict kind.
func (s *MetricsService) IncConflict(kind Verdict) {
	s.conflictTotal.WithLabelValues(string(kind)).Inc()
}

// CacheHit records a roster cache hit.
func (s *MetricsService) CacheHit() {
	s.cacheHits.Inc()
}

// CacheMiss records a roster cache miss.
func (s *MetricsService) CacheMiss() {
	s.cacheMisses.Inc()
}
