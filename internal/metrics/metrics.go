package metrics

import (
	"time"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "statengine"

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	entriesRecorded   *prometheus.CounterVec
	entriesRejected   *prometheus.CounterVec
	bufferedEntries   prometheus.Gauge
	flushes           prometheus.Counter
	flushFailures     prometheus.Counter
	flushDuration     prometheus.Histogram
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	pageWriteFailures *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entriesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_recorded_total",
			Help:      "Number of entries recorded into the in-memory buffer.",
		}, []string{"kind"}),
		entriesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_rejected_total",
			Help:      "Entries dropped because their kind is unregistered or they could not be encoded.",
		}, []string{"kind"}),
		bufferedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_entries",
			Help:      "Number of recorded entries not yet flushed.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Number of successful flushes.",
		}),
		flushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_failures_total",
			Help:      "Number of flushes that failed to persist; unwritten batches are kept for retry.",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Seconds spent persisting one flush.",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2.5},
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_hits_total",
			Help:      "Bucket aggregates served from a cached page.",
		}, []string{"key"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_misses_total",
			Help:      "Bucket aggregates computed from persisted entries.",
		}, []string{"key"}),
		pageWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_write_failures_total",
			Help:      "Computed aggregates that could not be written back to their page.",
		}, []string{"key"}),
	}

	reg.MustRegister(
		m.entriesRecorded,
		m.entriesRejected,
		m.bufferedEntries,
		m.flushes,
		m.flushFailures,
		m.flushDuration,
		m.cacheHits,
		m.cacheMisses,
		m.pageWriteFailures,
	)
	return m
}

func (m *Metrics) EntryRecorded(kind stats.EventKind, buffered int) {
	if m == nil {
		return
	}
	m.entriesRecorded.WithLabelValues(string(kind)).Inc()
	m.bufferedEntries.Set(float64(buffered))
}

func (m *Metrics) EntryRejected(kind stats.EventKind) {
	if m == nil {
		return
	}
	m.entriesRejected.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Buffered(n int) {
	if m == nil {
		return
	}
	m.bufferedEntries.Set(float64(n))
}

func (m *Metrics) FlushDone(took time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.flushFailures.Inc()
		return
	}
	m.flushes.Inc()
	m.flushDuration.Observe(took.Seconds())
}

func (m *Metrics) CacheHit(key stats.Key) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(key.String()).Inc()
}

func (m *Metrics) CacheMiss(key stats.Key) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(key.String()).Inc()
}

func (m *Metrics) PageWriteFailed(key stats.Key) {
	if m == nil {
		return
	}
	m.pageWriteFailures.WithLabelValues(key.String()).Inc()
}
