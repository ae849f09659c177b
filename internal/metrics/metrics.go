// Package metrics exposes Prometheus collectors for the storage engine.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional metrics dependency without branching at every call site.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prism"

// Metrics holds the storage engine collectors.
type Metrics struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	cacheSize      *prometheus.GaugeVec

	batchRows    *prometheus.CounterVec
	batchCommits prometheus.Counter

	purgeDeleted prometheus.Counter
	purgeCycles  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dimension_cache",
			Name:      "hits_total",
			Help:      "Total number of dimension cache hits",
		}, []string{"dimension"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dimension_cache",
			Name:      "misses_total",
			Help:      "Total number of dimension cache misses",
		}, []string{"dimension"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dimension_cache",
			Name:      "evictions_total",
			Help:      "Total number of dimension cache evictions",
		}, []string{"dimension"}),
		cacheSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dimension_cache",
			Name:      "size",
			Help:      "Current number of entries in the dimension cache",
		}, []string{"dimension"}),
		batchRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "rows_total",
			Help:      "Activity rows handled by batch writers, by outcome",
		}, []string{"outcome"}),
		batchCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "commits_total",
			Help:      "Total number of committed activity batches",
		}),
		purgeDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purge",
			Name:      "deleted_rows_total",
			Help:      "Total number of activity rows deleted by purge cycles",
		}),
		purgeCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purge",
			Name:      "cycles_total",
			Help:      "Total number of purge chunks executed",
		}),
	}

	collectors := []prometheus.Collector{
		m.cacheHits, m.cacheMisses, m.cacheEvictions, m.cacheSize,
		m.batchRows, m.batchCommits, m.purgeDeleted, m.purgeCycles,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// CacheHit records a dimension cache hit.
func (m *Metrics) CacheHit(dimension string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(dimension).Inc()
}

// CacheMiss records a dimension cache miss.
func (m *Metrics) CacheMiss(dimension string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(dimension).Inc()
}

// CacheEviction records a dimension cache eviction.
func (m *Metrics) CacheEviction(dimension string) {
	if m == nil {
		return
	}
	m.cacheEvictions.WithLabelValues(dimension).Inc()
}

// CacheSize sets the current size of a dimension cache.
func (m *Metrics) CacheSize(dimension string, size int) {
	if m == nil {
		return
	}
	m.cacheSize.WithLabelValues(dimension).Set(float64(size))
}

// BatchCommitted records a committed batch of n rows.
func (m *Metrics) BatchCommitted(n int) {
	if m == nil {
		return
	}
	m.batchCommits.Inc()
	m.batchRows.WithLabelValues("committed").Add(float64(n))
}

// BatchDropped records a fact row that was not written.
func (m *Metrics) BatchDropped() {
	if m == nil {
		return
	}
	m.batchRows.WithLabelValues("dropped").Inc()
}

// PurgeCycle records one purge chunk that deleted n rows.
func (m *Metrics) PurgeCycle(n int64) {
	if m == nil {
		return
	}
	m.purgeCycles.Inc()
	m.purgeDeleted.Add(float64(n))
}
