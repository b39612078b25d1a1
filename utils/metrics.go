// File: utils/metrics.go
package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "caredesk"

// Metrics groups the calendar collectors. A nil *Metrics is valid and records nothing,
// so services can be built without a registry in tests.
type Metrics struct {
	PassesTotal      *prometheus.CounterVec
	PassDuration     *prometheus.HistogramVec
	SkippedRuns      prometheus.Counter
	DocumentsWritten *prometheus.CounterVec
	BookingsTotal    *prometheus.CounterVec
	SlotQueries      *prometheus.CounterVec
	SlotCacheHits    prometheus.Counter
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics registers the collectors on first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			PassesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "reconcile",
				Name:      "phases_total",
				Help:      "Reconciliation phases by name and outcome.",
			}, []string{"phase", "outcome"}),

			PassDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "reconcile",
				Name:      "phase_duration_seconds",
				Help:      "Reconciliation phase latency distribution.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			}, []string{"phase"}),

			SkippedRuns: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "reconcile",
				Name:      "skipped_total",
				Help:      "Passes skipped because another pass was running.",
			}),

			DocumentsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "calendar",
				Name:      "documents_written_total",
				Help:      "Calendar month documents written, by writer.",
			}, []string{"writer"}),

			BookingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "calendar",
				Name:      "bookings_total",
				Help:      "Booking transactions by outcome.",
			}, []string{"outcome"}),

			SlotQueries: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "slots",
				Name:      "queries_total",
				Help:      "Slot queries by outcome.",
			}, []string{"outcome"}),

			SlotCacheHits: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "slots",
				Name:      "cache_hits_total",
				Help:      "Slot queries answered from Redis.",
			}),
		}
	})
	return metrics
}

func (m *Metrics) ObservePhase(phase string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PassesTotal.WithLabelValues(phase, outcome).Inc()
	m.PassDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Skipped() {
	if m == nil {
		return
	}
	m.SkippedRuns.Inc()
}

func (m *Metrics) DocumentWritten(writer string) {
	if m == nil {
		return
	}
	m.DocumentsWritten.WithLabelValues(writer).Inc()
}

func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SlotQuery(outcome string, cacheHit bool) {
	if m == nil {
		return
	}
	m.SlotQueries.WithLabelValues(outcome).Inc()
	if cacheHit {
		m.SlotCacheHits.Inc()
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
