// Package metrics exports object pool statistics and benchmark timings as
// Prometheus metrics.
//
// # Overview
//
// The metrics package provides:
//   - PoolCollector, a prometheus.Collector reading pool Stats at scrape time
//   - BenchMetrics, the histograms and counters filled by the benchmark harness
//   - Timer and LatencyTracker helpers for timing rounds
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	pools := metrics.NewPoolCollector("poolbench")
//	reg.MustRegister(pools)
//	pools.Track(linearPool)
//
//	bm := metrics.NewBenchMetrics(reg)
//	timer := metrics.NewTimer("alloc")
//	runScenario()
//	bm.ObserveRound("linear", "alloc", ops, timer.Stop())
//
// # Performance Considerations
//
// Pool statistics are pulled by the collector during a scrape, so tracking a
// pool adds nothing to its Pull/Release path.
package metrics

import (
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/lockfreepool/pkg/pool"
)

// StatsSource is anything that reports pool statistics. Every
// pool.ObjectPool satisfies it whatever its element type.
type StatsSource interface {
	Name() string
	Stats() pool.Stats
}

// idler is implemented by the free-list pools.
type idler interface {
	Idle() int
}

// PoolCollector is a prometheus.Collector over a set of pools. Values are
// read from the pools on every scrape.
type PoolCollector struct {
	mu    sync.RWMutex
	pools map[string]StatsSource

	allocated *prometheus.Desc
	pages     *prometheus.Desc
	idle      *prometheus.Desc
}

// NewPoolCollector creates a collector whose metric names start with
// namespace.
//
// Example:
//
//	c := metrics.NewPoolCollector("poolbench")
//	prometheus.MustRegister(c)
//	c.Track(p)
//	defer c.Untrack(p.Name())
func NewPoolCollector(namespace string) *PoolCollector {
	return &PoolCollector{
		pools: make(map[string]StatsSource),
		allocated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "allocated_total"),
			"Values constructed by the pool's init function",
			[]string{"pool"}, nil,
		),
		pages: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "pages"),
			"Pages in a linear pool's chain",
			[]string{"pool"}, nil,
		),
		idle: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "idle"),
			"Values waiting on a free list",
			[]string{"pool"}, nil,
		),
	}
}

// Track adds a pool, replacing any pool tracked under the same name.
func (c *PoolCollector) Track(p StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[p.Name()] = p
}

// Untrack removes the pool with the given name.
func (c *PoolCollector) Untrack(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pools, name)
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocated
	ch <- c.pages
	ch <- c.idle
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, p := range c.pools {
		stats := p.Stats()
		ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.CounterValue, float64(stats.Allocated), name)
		if stats.Pages > 0 {
			ch <- prometheus.MustNewConstMetric(c.pages, prometheus.GaugeValue, float64(stats.Pages), name)
		}
		if i, ok := p.(idler); ok {
			ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(i.Idle()), name)
		}
	}
}

// BenchMetrics holds the metrics recorded by the benchmark harness.
// Labels: variant (pool strategy), scenario (workload name).
type BenchMetrics struct {
	// OpLatency is the distribution of per-operation cost in nanoseconds,
	// one observation per round.
	OpLatency *prometheus.HistogramVec
	// Operations counts pulls or releases timed by the harness.
	Operations *prometheus.CounterVec
	// Throughput is the operations per second of the latest round.
	Throughput *prometheus.GaugeVec
	// RoundsFailed counts rounds aborted by cancellation or timeout.
	RoundsFailed *prometheus.CounterVec
}

// NewBenchMetrics registers the harness metrics with reg. A nil reg
// creates unregistered metrics.
func NewBenchMetrics(reg prometheus.Registerer) *BenchMetrics {
	factory := promauto.With(reg)
	labels := []string{"variant", "scenario"}

	return &BenchMetrics{
		OpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "poolbench_op_latency_nanoseconds",
				Help: "Average cost of one pool operation in a round, in nanoseconds",
				Buckets: []float64{
					5,     // 5ns - uncontended lock-free fast path
					10,    // 10ns
					25,    // 25ns - uncontended locks
					50,    // 50ns
					100,   // 100ns - light contention
					250,   // 250ns
					1000,  // 1μs - heavy contention
					10000, // 10μs - allocating large payloads
					1e5,   // 100μs
				},
			},
			labels,
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolbench_operations_total",
				Help: "Total number of timed pool operations",
			},
			labels,
		),
		Throughput: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poolbench_throughput_ops_per_second",
				Help: "Pool operations per second in the latest round",
			},
			labels,
		),
		RoundsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolbench_rounds_failed_total",
				Help: "Rounds that did not complete",
			},
			labels,
		),
	}
}

// ObserveRound records one completed round of ops operations that took d.
func (m *BenchMetrics) ObserveRound(variant, scenario string, ops int, d time.Duration) {
	if ops <= 0 {
		return
	}
	m.Operations.WithLabelValues(variant, scenario).Add(float64(ops))
	m.OpLatency.WithLabelValues(variant, scenario).Observe(float64(d.Nanoseconds()) / float64(ops))
	if secs := d.Seconds(); secs > 0 {
		m.Throughput.WithLabelValues(variant, scenario).Set(float64(ops) / secs)
	}
}

// ObserveFailure counts an aborted round.
func (m *BenchMetrics) ObserveFailure(variant, scenario string) {
	m.RoundsFailed.WithLabelValues(variant, scenario).Inc()
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. The timer can be
// stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// LatencyTracker keeps the most recent maxSize durations and answers
// percentile queries over them.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	maxSize int
}

// NewLatencyTracker creates a new latency tracker
func NewLatencyTracker(maxSize int) *LatencyTracker {
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record records a latency value
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) >= l.maxSize {
		// drop oldest
		l.values = l.values[1:]
	}
	l.values = append(l.values, d)
}

// Len returns the number of recorded values.
func (l *LatencyTracker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

// GetPercentile returns the percentile value (0-100) using the
// nearest-rank method.
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := slices.Clone(l.values)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	slices.Sort(sorted)

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
