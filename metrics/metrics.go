// Package metrics 定义推荐服务的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/hybridrec/core"
)

const namespace = "hybridrec"

// Collectors 推荐服务的指标集合，实现 engine.Observer。
type Collectors struct {
	Requests       *prometheus.CounterVec
	RequestLatency prometheus.Histogram
	Results        prometheus.Histogram
	StageLatency   *prometheus.HistogramVec
	RecallResults  *prometheus.CounterVec
	RecallLatency  *prometheus.HistogramVec
	AuditFailures  prometheus.Counter
	BreakerState   *prometheus.GaugeVec
}

// New 创建指标并注册到 reg；reg 为 nil 时不注册（测试用）。
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests by outcome",
		}, []string{"outcome"}),
		RequestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_latency_seconds",
			Help:      "End-to-end latency of recommendation requests",
			Buckets:   prometheus.DefBuckets,
		}),
		Results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_results",
			Help:      "Number of recommendations returned per request",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		}),
		StageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Latency of each recommendation stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		RecallResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recall_results_total",
			Help:      "Recall source outcomes by source and status",
		}, []string{"source", "status"}),
		RecallLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recall_latency_seconds",
			Help:      "Latency of each recall source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit records that could not be persisted",
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}
	if reg != nil {
		reg.MustRegister(
			c.Requests,
			c.RequestLatency,
			c.Results,
			c.StageLatency,
			c.RecallResults,
			c.RecallLatency,
			c.AuditFailures,
			c.BreakerState,
		)
	}
	return c
}

func (c *Collectors) ObserveRequest(outcome string, elapsed time.Duration, results int) {
	c.Requests.WithLabelValues(outcome).Inc()
	c.RequestLatency.Observe(elapsed.Seconds())
	c.Results.Observe(float64(results))
}

func (c *Collectors) ObserveStage(stage string, elapsed time.Duration) {
	c.StageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (c *Collectors) ObserveRecall(source string, status core.RecallStatus, elapsed time.Duration) {
	c.RecallResults.WithLabelValues(source, string(status)).Inc()
	c.RecallLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (c *Collectors) AuditFailed() {
	c.AuditFailures.Inc()
}

// BreakerStateChanged 记录熔断器状态，签名与 breaker.StateListener 一致。
func (c *Collectors) BreakerStateChanged(name, _, to string) {
	var v float64
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	c.BreakerState.WithLabelValues(name).Set(v)
}
