package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Board metrics
	MembershipTransitions *prometheus.CounterVec
	TaskMutations         *prometheus.CounterVec
	ReorderBatchSize      prometheus.Histogram
	ReorderRejected       *prometheus.CounterVec

	// Identity lookup metrics
	IdentityLookups *prometheus.CounterVec
	IdentityBreaker prometheus.Gauge
	IdentityCache   *prometheus.CounterVec
}

// New registers metrics with the default Prometheus registry.
func New(namespace string) *Metrics {
	return NewWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers metrics with reg.
func NewWithRegisterer(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "worldboard"
	}
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		MembershipTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "membership",
				Name:      "transitions_total",
				Help:      "Membership lifecycle transitions",
			},
			[]string{"transition"}, // invited, accepted, declined, kicked, left
		),
		TaskMutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "task",
				Name:      "mutations_total",
				Help:      "Task list mutations by kind",
			},
			[]string{"kind"}, // created, toggled, noted, deleted, reordered
		),
		ReorderBatchSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "task",
				Name:      "reorder_batch_size",
				Help:      "Number of tasks in accepted reorder batches",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
		ReorderRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "task",
				Name:      "reorder_rejected_total",
				Help:      "Reorder batches rejected before any write",
			},
			[]string{"reason"}, // stale, invalid
		),

		IdentityLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "identity",
				Name:      "lookups_total",
				Help:      "Identity provider lookups by result",
			},
			[]string{"op", "result"}, // op: username, profile; result: ok, not_found, error
		),
		IdentityBreaker: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "identity",
				Name:      "breaker_open",
				Help:      "Identity provider circuit state (1=open, 0=closed or half-open)",
			},
		),
		IdentityCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "identity",
				Name:      "cache_lookups_total",
				Help:      "Identity cache reads by result",
			},
			[]string{"result"}, // hit, miss
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMembershipTransition records a membership lifecycle step.
func (m *Metrics) RecordMembershipTransition(transition string) {
	m.MembershipTransitions.WithLabelValues(transition).Inc()
}

// RecordTaskMutation records a task list mutation.
func (m *Metrics) RecordTaskMutation(kind string) {
	m.TaskMutations.WithLabelValues(kind).Inc()
}

// RecordReorder records an applied reorder batch of n tasks.
func (m *Metrics) RecordReorder(n int) {
	m.ReorderBatchSize.Observe(float64(n))
}

// RecordReorderRejected records a reorder batch refused before writing.
func (m *Metrics) RecordReorderRejected(reason string) {
	m.ReorderRejected.WithLabelValues(reason).Inc()
}

// RecordIdentityLookup records an identity provider call.
func (m *Metrics) RecordIdentityLookup(op, result string) {
	m.IdentityLookups.WithLabelValues(op, result).Inc()
}

// SetIdentityBreakerOpen sets the identity circuit gauge.
func (m *Metrics) SetIdentityBreakerOpen(open bool) {
	if open {
		m.IdentityBreaker.Set(1)
		return
	}
	m.IdentityBreaker.Set(0)
}

// RecordIdentityCache records an identity cache read.
func (m *Metrics) RecordIdentityCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.IdentityCache.WithLabelValues(result).Inc()
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
