package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the booking API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	slotGeneration    *prometheus.HistogramVec
	occupancyInFlight prometheus.Gauge
	occupancyFailures prometheus.Counter
	bookingOutcomes   *prometheus.CounterVec
	lessonTransitions *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
	inFlight       int64
	inFlightPeak   int64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	slotGeneration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slot_generation_duration_seconds",
		Help:    "Duration of single-day slot generation",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	occupancyInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "occupancy_slot_queries_in_flight",
		Help: "Slot queries currently running for month occupancy aggregation",
	})

	occupancyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "occupancy_date_failures_total",
		Help: "Dates dropped from month occupancy because their slot query failed",
	})

	bookingOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lesson_bookings_total",
		Help: "Lesson booking attempts by outcome",
	}, []string{"outcome"})

	lessonTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lesson_transitions_total",
		Help: "Lesson lifecycle transitions by target status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		slotGeneration, occupancyInFlight, occupancyFailures, bookingOutcomes, lessonTransitions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		slotGeneration:    slotGeneration,
		occupancyInFlight: occupancyInFlight,
		occupancyFailures: occupancyFailures,
		bookingOutcomes:   bookingOutcomes,
		lessonTransitions: lessonTransitions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSlotGeneration records one slot generation call.
func (m *MetricsService) ObserveSlotGeneration(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.slotGeneration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SlotQueryStarted marks one occupancy slot query as in flight.
func (m *MetricsService) SlotQueryStarted() {
	if m == nil {
		return
	}
	m.occupancyInFlight.Inc()
	current := atomic.AddInt64(&m.inFlight, 1)
	for {
		peak := atomic.LoadInt64(&m.inFlightPeak)
		if current <= peak || atomic.CompareAndSwapInt64(&m.inFlightPeak, peak, current) {
			return
		}
	}
}

// SlotQueryFinished releases an in-flight occupancy slot query.
func (m *MetricsService) SlotQueryFinished() {
	if m == nil {
		return
	}
	m.occupancyInFlight.Dec()
	atomic.AddInt64(&m.inFlight, -1)
}

// InFlightPeak reports the highest number of concurrent occupancy slot queries observed.
func (m *MetricsService) InFlightPeak() int {
	if m == nil {
		return 0
	}
	return int(atomic.LoadInt64(&m.inFlightPeak))
}

// RecordOccupancyFailure counts a date dropped from an occupancy computation.
func (m *MetricsService) RecordOccupancyFailure() {
	if m == nil {
		return
	}
	m.occupancyFailures.Inc()
}

// RecordBooking counts a booking attempt outcome such as "created", "slot_taken" or "error".
func (m *MetricsService) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

// RecordLessonTransition counts a lifecycle transition.
func (m *MetricsService) RecordLessonTransition(status string) {
	if m == nil {
		return
	}
	m.lessonTransitions.WithLabelValues(status).Inc()
}
