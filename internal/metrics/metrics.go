// Package metrics holds the Prometheus instrumentation of the sync agent.
//
// All recording methods are safe on a nil *Metrics so that components can be
// constructed without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the namespace of every sessync metric.
const Namespace = "sessync"

// Metrics holds all Prometheus metrics of the agent.
type Metrics struct {
	AttemptsTotal         *prometheus.CounterVec
	SkippedTotal          *prometheus.CounterVec
	OutcomesTotal         *prometheus.CounterVec
	RetriesScheduledTotal prometheus.Counter
	StatusReportsTotal    *prometheus.CounterVec
	TransferDuration      prometheus.Histogram
	Presence              prometheus.Gauge
}

// New creates and registers all metrics on reg.
// A nil registerer falls back to the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}
	m.initSyncMetrics(factory)
	m.initReportMetrics(factory)
	return m
}

func (m *Metrics) initSyncMetrics(factory promauto.Factory) {
	m.AttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "attempts_total",
			Help:      "Total number of sync attempts that passed the rate and guard checks",
		},
		[]string{"trigger"},
	)

	m.SkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "skipped_total",
			Help:      "Total number of sync requests dropped before running",
		},
		[]string{"reason"},
	)

	m.OutcomesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "outcomes_total",
			Help:      "Total number of terminal sync outcomes",
		},
		[]string{"status"},
	)

	m.RetriesScheduledTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "retries_scheduled_total",
			Help:      "Total number of retries scheduled after transient failures",
		},
	)

	m.TransferDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Duration of credential transfers",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)
}

func (m *Metrics) initReportMetrics(factory promauto.Factory) {
	m.StatusReportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "status_reports_total",
			Help:      "Total number of status reports by result",
		},
		[]string{"result"},
	)

	m.Presence = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "presence",
			Help:      "1 when the companion application is open, 0 otherwise",
		},
	)
}

// RecordAttempt counts an attempt that started running.
func (m *Metrics) RecordAttempt(trigger string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(trigger).Inc()
}

// RecordSkipped counts a dropped request.
func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.SkippedTotal.WithLabelValues(reason).Inc()
}

// RecordOutcome counts a terminal outcome.
func (m *Metrics) RecordOutcome(status string) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(status).Inc()
}

// RecordRetryScheduled counts a scheduled retry.
func (m *Metrics) RecordRetryScheduled() {
	if m == nil {
		return
	}
	m.RetriesScheduledTotal.Inc()
}

// RecordStatusReport counts a status report by result (sent, failed, rate_limited, inactive).
func (m *Metrics) RecordStatusReport(result string) {
	if m == nil {
		return
	}
	m.StatusReportsTotal.WithLabelValues(result).Inc()
}

// ObserveTransfer records the duration of a credential transfer.
func (m *Metrics) ObserveTransfer(d time.Duration) {
	if m == nil {
		return
	}
	m.TransferDuration.Observe(d.Seconds())
}

// SetPresence records the presence state.
func (m *Metrics) SetPresence(present bool) {
	if m == nil {
		return
	}
	if present {
		m.Presence.Set(1)
		return
	}
	m.Presence.Set(0)
}
