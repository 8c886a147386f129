package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowweave/flowweave/pkg/observability"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowweave_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowweave_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	weavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowweave_weaves_total",
			Help: "Total weave invocations by outcome",
		},
		[]string{"outcome"},
	)

	weaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowweave_weave_duration_seconds",
			Help:    "Weave execution time",
			Buckets: prometheus.DefBuckets,
		},
	)

	unmatchedFlows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowweave_unmatched_flows_total",
			Help: "Flow records no bundle covered, across all weaves",
		},
	)

	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowweave_cache_ops_total",
			Help: "Cache operations by key class and outcome",
		},
		[]string{"key_type", "op"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(weavesTotal)
	prometheus.MustRegister(weaveDuration)
	prometheus.MustRegister(unmatchedFlows)
	prometheus.MustRegister(cacheOpsTotal)
}

// RegisterHooks installs Prometheus-backed observability hooks so weave
// and cache events show up on /metrics. Call once at startup.
func RegisterHooks() {
	observability.SetWeaveHooks(promWeaveHooks{})
	observability.SetCacheHooks(promCacheHooks{})
}

type promWeaveHooks struct {
	observability.NoopWeaveHooks
}

func (promWeaveHooks) OnWeaveComplete(ctx context.Context, nodes, links, unmatched int, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	weavesTotal.WithLabelValues(outcome).Inc()
	weaveDuration.Observe(duration.Seconds())
	unmatchedFlows.Add(float64(unmatched))
}

type promCacheHooks struct{}

func (promCacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	cacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (promCacheHooks) OnCacheMiss(ctx context.Context, keyType string) {
	cacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (promCacheHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	cacheOpsTotal.WithLabelValues(keyType, "set").Inc()
}
