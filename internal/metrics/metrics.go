// Package metrics tracks pipeline throughput. Counters carries its own state
// instead of package-level globals so independent pipelines (and tests) never
// share counts; the Prometheus side is registered once per registry.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters accumulates pipeline totals. All methods are safe for concurrent
// use by the source pollers.
type Counters struct {
	eventsProcessed atomic.Uint64
	eventsDropped   atomic.Uint64
	cycleErrors     atomic.Uint64

	processedVec *prometheus.CounterVec
	droppedVec   *prometheus.CounterVec
	errorsVec    *prometheus.CounterVec
	cycleSeconds *prometheus.HistogramVec
}

// New creates counters registered on the given registry. Pass nil to use the
// default registry.
func New(reg prometheus.Registerer) *Counters {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Counters{
		processedVec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexrelay_events_processed_total",
				Help: "Total number of swap events normalized and published",
			},
			[]string{"source"},
		),
		droppedVec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexrelay_events_dropped_total",
				Help: "Total number of raw records dropped during normalization",
			},
			[]string{"source"},
		),
		errorsVec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexrelay_cycle_errors_total",
				Help: "Total number of poll cycle attempts that failed",
			},
			[]string{"source"},
		),
		cycleSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dexrelay_cycle_duration_seconds",
				Help:    "Duration of completed poll cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

// RecordEventsProcessed adds published events for a source.
func (c *Counters) RecordEventsProcessed(source string, n int) {
	if n <= 0 {
		return
	}
	c.eventsProcessed.Add(uint64(n))
	c.processedVec.WithLabelValues(source).Add(float64(n))
}

// RecordEventsDropped adds dropped records for a source.
func (c *Counters) RecordEventsDropped(source string, n int) {
	if n <= 0 {
		return
	}
	c.eventsDropped.Add(uint64(n))
	c.droppedVec.WithLabelValues(source).Add(float64(n))
}

// RecordError counts one failed cycle attempt for a source.
func (c *Counters) RecordError(source string) {
	c.cycleErrors.Add(1)
	c.errorsVec.WithLabelValues(source).Inc()
}

// ObserveCycleDuration records a completed cycle's wall time.
func (c *Counters) ObserveCycleDuration(source string, seconds float64) {
	c.cycleSeconds.WithLabelValues(source).Observe(seconds)
}

// Snapshot is a point-in-time view of the totals across all sources.
type Snapshot struct {
	EventsProcessed uint64 `json:"events_processed"`
	EventsDropped   uint64 `json:"events_dropped"`
	CycleErrors     uint64 `json:"cycle_errors"`
}

// Snapshot reads the current totals.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		EventsProcessed: c.eventsProcessed.Load(),
		EventsDropped:   c.eventsDropped.Load(),
		CycleErrors:     c.cycleErrors.Load(),
	}
}
