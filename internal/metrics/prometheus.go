// Package metrics exposes Prometheus metrics for refreshes, admission
// decisions and command dispatch. Metrics live on a dedicated registry so
// tests can create as many instances as they need.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soltixdb/clusterview/internal/models"
)

// Refresh outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeSuperseded = "superseded"
)

// Admission decisions
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Refresh metrics
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	ClockTicks      *prometheus.CounterVec

	// Snapshot metrics
	SnapshotNodes      prometheus.Gauge
	SnapshotIndices    prometheus.Gauge
	SnapshotShards     *prometheus.GaugeVec
	SnapshotTickSeconds prometheus.Gauge

	// Admission metrics
	AdmissionsTotal *prometheus.CounterVec

	// Dispatch metrics
	DispatchesTotal  *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec

	// Time series metrics
	TrackedSeries prometheus.Gauge
}

// New creates and registers all metrics under namespace
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "total",
				Help:      "Total number of topology refreshes by outcome.",
			},
			[]string{"outcome"},
		),

		RefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Duration of topology fetch and build.",
				Buckets:   prometheus.DefBuckets,
			},
		),

		ClockTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "ticks_total",
				Help:      "Refresh clock ticks by scope.",
			},
			[]string{"scope"},
		),

		SnapshotNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "nodes",
				Help:      "Nodes in the current topology snapshot.",
			},
		),

		SnapshotIndices: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "indices",
				Help:      "Indices in the current topology snapshot.",
			},
		),

		SnapshotShards: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "shards",
				Help:      "Shard copies in the current snapshot by bucket.",
			},
			[]string{"bucket"},
		),

		SnapshotTickSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "tick_timestamp_seconds",
				Help:      "Unix time of the tick the current snapshot belongs to.",
			},
		),

		AdmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "admission",
				Name:      "decisions_total",
				Help:      "Admission decisions by operation, decision and reason.",
			},
			[]string{"operation", "decision", "reason"},
		),

		DispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "commands_total",
				Help:      "Commands published by command and outcome.",
			},
			[]string{"command", "outcome"},
		),

		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Duration of publishing one command.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		TrackedSeries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "timeseries",
				Name:      "tracked",
				Help:      "Number of (entity, metric) series held in memory.",
			},
		),
	}
}

// Registry returns the registry all metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the exposition handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records one refresh attempt
func (m *Metrics) ObserveRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.RefreshDuration.Observe(d.Seconds())
	}
}

// ObserveTick records a refresh clock tick
func (m *Metrics) ObserveTick(scope string) {
	if m == nil {
		return
	}
	if scope == "" {
		scope = "all"
	}
	m.ClockTicks.WithLabelValues(scope).Inc()
}

// SetSnapshot publishes the counts of a freshly installed snapshot
func (m *Metrics) SetSnapshot(sum models.TopologySummary, tick time.Time) {
	if m == nil {
		return
	}
	m.SnapshotNodes.Set(float64(sum.Nodes))
	m.SnapshotIndices.Set(float64(sum.Indices))
	m.SnapshotShards.WithLabelValues("assigned").Set(float64(sum.AssignedShards))
	m.SnapshotShards.WithLabelValues("unknown_node").Set(float64(sum.UnknownShards))
	m.SnapshotShards.WithLabelValues("unassigned").Set(float64(sum.Unassigned))
	m.SnapshotTickSeconds.Set(float64(tick.UnixNano()) / float64(time.Second))
}

// ObserveAdmission records one admission decision. reason is empty for
// approvals.
func (m *Metrics) ObserveAdmission(operation string, approved bool, reason string) {
	if m == nil {
		return
	}
	decision := DecisionRejected
	if approved {
		decision = DecisionApproved
	}
	m.AdmissionsTotal.WithLabelValues(operation, decision, reason).Inc()
}

// ObserveDispatch records one published command
func (m *Metrics) ObserveDispatch(command string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.DispatchesTotal.WithLabelValues(command, outcome).Inc()
	m.DispatchDuration.WithLabelValues(command).Observe(d.Seconds())
}

// SetTrackedSeries publishes the number of tracked series
func (m *Metrics) SetTrackedSeries(n int) {
	if m == nil {
		return
	}
	m.TrackedSeries.Set(float64(n))
}
