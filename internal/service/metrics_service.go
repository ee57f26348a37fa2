package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the geofence
// engine. All observation methods are nil-receiver safe so services can run
// without metrics in tests.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	fixesTotal       *prometheus.CounterVec
	exitsDetected    prometheus.Counter
	reEntriesTotal   prometheus.Counter
	autoClockouts    *prometheus.CounterVec
	finalizeRaceLost prometheus.Counter
	sweepDuration    prometheus.Histogram
}

// NewMetricsService registers the engine's Prometheus collectors.
// pendingTimers reports the number of scheduled grace deadlines; pass nil to
// skip the gauge.
func NewMetricsService(pendingTimers func() int) *MetricsService {
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

	fixesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_fixes_total",
		Help: "Location fixes processed, by resulting status",
	}, []string{"status"})

	exitsDetected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geofence_exits_detected_total",
		Help: "Reliable exits classified from location fixes",
	})

	reEntriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geofence_re_entries_total",
		Help: "Pending exits voided by a re-entry fix",
	})

	autoClockouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auto_clockouts_total",
		Help: "Automatic clock-outs finalized, by reason",
	}, []string{"reason"})

	finalizeRaceLost := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finalize_races_lost_total",
		Help: "Finalize attempts that lost the conditional-write race",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auto_clockout_sweep_duration_seconds",
		Help:    "Duration of periodic auto clock-out sweeps",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	collectors := []prometheus.Collector{
		requestDuration, requestTotal, fixesTotal, exitsDetected,
		reEntriesTotal, autoClockouts, finalizeRaceLost, sweepDuration,
		goroutines,
	}
	if pendingTimers != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "geofence_pending_exit_timers",
			Help: "Deferred grace timers currently scheduled",
		}, func() float64 {
			return float64(pendingTimers())
		}))
	}
	registry.MustRegister(collectors...)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		fixesTotal:       fixesTotal,
		exitsDetected:    exitsDetected,
		reEntriesTotal:   reEntriesTotal,
		autoClockouts:    autoClockouts,
		finalizeRaceLost: finalizeRaceLost,
		sweepDuration:    sweepDuration,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return s.handler
}

// ObserveHTTPRequest records one request's latency and count.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveFix records one processed location fix by status token.
func (s *MetricsService) ObserveFix(status string) {
	if s == nil {
		return
	}
	s.fixesTotal.WithLabelValues(status).Inc()
}

// ExitDetected counts a classified exit.
func (s *MetricsService) ExitDetected() {
	if s == nil {
		return
	}
	s.exitsDetected.Inc()
}

// ReEntry counts a voided exit.
func (s *MetricsService) ReEntry() {
	if s == nil {
		return
	}
	s.reEntriesTotal.Inc()
}

// AutoClockout counts a finalized automatic clock-out.
func (s *MetricsService) AutoClockout(reason string) {
	if s == nil {
		return
	}
	s.autoClockouts.WithLabelValues(reason).Inc()
}

// RaceLost counts a finalize attempt beaten by a concurrent writer.
func (s *MetricsService) RaceLost() {
	if s == nil {
		return
	}
	s.finalizeRaceLost.Inc()
}

// ObserveSweep records one sweep pass duration.
func (s *MetricsService) ObserveSweep(d time.Duration) {
	if s == nil {
		return
	}
	s.sweepDuration.Observe(d.Seconds())
}
