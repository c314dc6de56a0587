package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/pkg/pool"
)

func TestPoolCollector(t *testing.T) {
	quiet := pool.WithLogger(zap.NewNop())
	linear := pool.NewLinear(func() int { return 0 }, nil, pool.WithName("lin"), quiet)
	mutex := pool.NewMutex(func() int { return 0 }, nil, pool.WithName("mtx"), quiet)

	c := NewPoolCollector("test")
	c.Track(linear)
	c.Track(mutex)

	held := make([]pool.LinearReusable[int], 0, 40)
	for i := 0; i < 40; i++ {
		held = append(held, linear.Pull())
	}
	m := mutex.Pull()
	m.Release()

	expected := `
# HELP test_pool_allocated_total Values constructed by the pool's init function
# TYPE test_pool_allocated_total counter
test_pool_allocated_total{pool="lin"} 64
test_pool_allocated_total{pool="mtx"} 1
# HELP test_pool_idle Values waiting on a free list
# TYPE test_pool_idle gauge
test_pool_idle{pool="mtx"} 1
# HELP test_pool_pages Pages in a linear pool's chain
# TYPE test_pool_pages gauge
test_pool_pages{pool="lin"} 2
`
	require.NoError(t, promtest.CollectAndCompare(c, strings.NewReader(expected)))

	for i := range held {
		held[i].Release()
	}

	c.Untrack("lin")
	assert.Equal(t, 2, promtest.CollectAndCount(c))
}

func TestPoolCollectorRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewPoolCollector("test")))
}

func TestBenchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBenchMetrics(reg)

	m.ObserveRound("linear", "alloc", 1000, 20*time.Microsecond)
	m.ObserveRound("linear", "alloc", 1000, 40*time.Microsecond)
	m.ObserveRound("linear", "alloc", 0, time.Second)
	m.ObserveFailure("mutex", "free-mt")

	assert.Equal(t, 2000.0, promtest.ToFloat64(m.Operations.WithLabelValues("linear", "alloc")))
	assert.InDelta(t, 2.5e7, promtest.ToFloat64(m.Throughput.WithLabelValues("linear", "alloc")), 1)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RoundsFailed.WithLabelValues("mutex", "free-mt")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.OpLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestTimer(t *testing.T) {
	timer := NewTimer("round")
	time.Sleep(time.Millisecond)

	assert.Equal(t, "round", timer.Name())
	first := timer.Stop()
	assert.GreaterOrEqual(t, first, time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), first)
}

func TestLatencyTracker(t *testing.T) {
	l := NewLatencyTracker(4)
	assert.Equal(t, time.Duration(0), l.GetPercentile(50))

	for _, d := range []time.Duration{9, 1, 7, 3, 5} {
		l.Record(d)
	}

	// 9 was evicted
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, time.Duration(1), l.GetPercentile(0))
	assert.Equal(t, time.Duration(5), l.GetPercentile(50))
	assert.Equal(t, time.Duration(7), l.GetPercentile(100))
}
