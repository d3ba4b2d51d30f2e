package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCartSyncMetricsNilSafe(t *testing.T) {
	var m *CartSyncMetrics
	m.IncSyncSuccess("create")
	m.IncSyncFailure("update")
	m.IncFlush()
	m.IncFlushError()
	m.ObserveSyncDuration("create", time.Second)

	empty := NewCartSyncMetrics(nil)
	empty.IncFlush()
}

func TestCartSyncMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartSyncMetrics(reg)

	m.IncSyncSuccess("create")
	m.IncSyncSuccess("create")
	m.IncSyncFailure("")
	m.IncFlush()

	if got := testutil.ToFloat64(m.syncSuccess.WithLabelValues("create")); got != 2 {
		t.Fatalf("expected 2 create successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.syncFailure.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty operation to normalize to unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.flushes); got != 1 {
		t.Fatalf("expected 1 flush, got %v", got)
	}
}
