package solver

import (
	"sync/atomic"
	"time"
)

// SearchMetrics summarises one solver call.
type SearchMetrics struct {
	StartTime time.Time
	Duration  time.Duration
	Battles   int64
	Workers   int
}

// BattlesPerSecond is the throughput of the search.
func (m SearchMetrics) BattlesPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}
	return float64(m.Battles) / m.Duration.Seconds()
}

// MetricsCollector counts battles resolved while searching. Implementations
// must be safe for concurrent use by the parallel workers.
type MetricsCollector interface {
	Start(workers int)
	AddBattle()
	Complete() SearchMetrics
}

type metricsCollector struct {
	startTime time.Time
	workers   int
	battles   atomic.Int64
}

func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{}
}

func (m *metricsCollector) Start(workers int) {
	m.startTime = time.Now()
	m.workers = workers
	m.battles.Store(0)
}

func (m *metricsCollector) AddBattle() {
	m.battles.Add(1)
}

func (m *metricsCollector) Complete() SearchMetrics {
	return SearchMetrics{
		StartTime: m.startTime,
		Duration:  time.Since(m.startTime),
		Battles:   m.battles.Load(),
		Workers:   m.workers,
	}
}

type noMetricsCollector struct{}

func NewNoMetricsCollector() MetricsCollector {
	return &noMetricsCollector{}
}

func (m *noMetricsCollector) Start(int)               {}
func (m *noMetricsCollector) AddBattle()              {}
func (m *noMetricsCollector) Complete() SearchMetrics { return SearchMetrics{} }
