package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/hybridrec/core"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveRequest("ok", 20*time.Millisecond, 5)
	c.ObserveRequest("ok", 30*time.Millisecond, 0)
	c.ObserveRequest("nlp_error", time.Millisecond, 0)
	c.ObserveRecall("semantic", core.RecallFailed, time.Millisecond)
	c.ObserveStage("rank", time.Millisecond)
	c.AuditFailed()
	c.BreakerStateChanged("nlp", "closed", "open")

	if got := testutil.ToFloat64(c.Requests.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok requests = %v", got)
	}
	if got := testutil.ToFloat64(c.RecallResults.WithLabelValues("semantic", "failed")); got != 1 {
		t.Errorf("failed recalls = %v", got)
	}
	if got := testutil.ToFloat64(c.AuditFailures); got != 1 {
		t.Errorf("audit failures = %v", got)
	}
	if got := testutil.ToFloat64(c.BreakerState.WithLabelValues("nlp")); got != 2 {
		t.Errorf("breaker state = %v", got)
	}
	if n := testutil.CollectAndCount(c.RequestLatency); n != 1 {
		t.Errorf("latency collectors = %d", n)
	}
}

func TestNewWithoutRegistry(t *testing.T) {
	c := New(nil)
	c.ObserveRequest("ok", time.Millisecond, 1)
	if got := testutil.ToFloat64(c.Requests.WithLabelValues("ok")); got != 1 {
		t.Errorf("requests = %v", got)
	}
}
