// Package metrics provides Prometheus collectors for the analytics services.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors shared by the services. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	AggregateDuration  *prometheus.HistogramVec
	SkippedUnits       *prometheus.CounterVec
	EventWrites        *prometheus.CounterVec
	StatisticsComputed prometheus.Counter
	registry           *prometheus.Registry
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register analytics metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.AggregateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrotrack_aggregate_duration_seconds",
		Help:    "Duration of multi-entity aggregate operations",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"operation"})

	m.SkippedUnits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agrotrack_aggregate_skipped_units_total",
		Help: "Beds or nurseries excluded from an aggregate because their reads failed",
	}, []string{"operation"})

	m.EventWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agrotrack_cutting_event_writes_total",
		Help: "Cutting event records written, by operation",
	}, []string{"operation"})

	m.StatisticsComputed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agrotrack_bed_statistics_computed_total",
		Help: "Bed statistics snapshots recomputed",
	})
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.AggregateDuration.Describe(ch)
	m.SkippedUnits.Describe(ch)
	m.EventWrites.Describe(ch)
	m.StatisticsComputed.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.AggregateDuration.Collect(ch)
	m.SkippedUnits.Collect(ch)
	m.EventWrites.Collect(ch)
	m.StatisticsComputed.Collect(ch)
}

// ObserveAggregate records the duration since start and the skipped unit count.
func (m *Metrics) ObserveAggregate(operation string, start time.Time, skipped int) {
	if m == nil {
		return
	}
	m.AggregateDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if skipped > 0 {
		m.SkippedUnits.WithLabelValues(operation).Add(float64(skipped))
	}
}

// RecordEventWrites counts n written event records.
func (m *Metrics) RecordEventWrites(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EventWrites.WithLabelValues(operation).Add(float64(n))
}

// RecordStatistics counts one recomputed snapshot.
func (m *Metrics) RecordStatistics() {
	if m == nil {
		return
	}
	m.StatisticsComputed.Inc()
}
