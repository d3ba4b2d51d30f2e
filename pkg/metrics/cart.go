package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records persistence and remote reconciliation outcomes.
type CartSyncMetrics struct {
	syncDuration *prometheus.HistogramVec
	syncSuccess  *prometheus.CounterVec
	syncFailure  *prometheus.CounterVec
	flushes      prometheus.Counter
	flushErrors  prometheus.Counter
}

// NewCartSyncMetrics registers the cart metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_sync_duration_seconds",
		Help:    "Duration of remote cart reconciliation calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	syncSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_success",
		Help: "Successful remote cart reconciliations.",
	}, []string{"operation"})
	syncFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failure",
		Help: "Failed remote cart reconciliations.",
	}, []string{"operation"})
	flushes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_flush_total",
		Help: "Snapshot flushes written to disk.",
	})
	flushErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_flush_errors_total",
		Help: "Snapshot flushes that failed.",
	})
	reg.MustRegister(syncDuration, syncSuccess, syncFailure, flushes, flushErrors)
	return &CartSyncMetrics{
		syncDuration: syncDuration,
		syncSuccess:  syncSuccess,
		syncFailure:  syncFailure,
		flushes:      flushes,
		flushErrors:  flushErrors,
	}
}

// ObserveSyncDuration records the duration for the named operation.
func (c *CartSyncMetrics) ObserveSyncDuration(operation string, duration time.Duration) {
	if c == nil || c.syncDuration == nil {
		return
	}
	c.syncDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSyncSuccess increments the success counter for the named operation.
func (c *CartSyncMetrics) IncSyncSuccess(operation string) {
	if c == nil || c.syncSuccess == nil {
		return
	}
	c.syncSuccess.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncSyncFailure increments the failure counter for the named operation.
func (c *CartSyncMetrics) IncSyncFailure(operation string) {
	if c == nil || c.syncFailure == nil {
		return
	}
	c.syncFailure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFlush counts a snapshot write.
func (c *CartSyncMetrics) IncFlush() {
	if c == nil || c.flushes == nil {
		return
	}
	c.flushes.Inc()
}

// IncFlushError counts a failed snapshot write.
func (c *CartSyncMetrics) IncFlushError() {
	if c == nil || c.flushErrors == nil {
		return
	}
	c.flushErrors.Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
