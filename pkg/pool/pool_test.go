package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/lockfreepool/pkg/lockfree"
	"github.com/ajitpratap0/lockfreepool/pkg/testutil"
)

type poolFactory struct {
	name string
	new  func(reset func(*uint32)) ObjectPool[uint32]
}

func zeroU32() uint32 { return 0 }

func resetU32(v *uint32) { *v = 0 }

// reusingPools are the strategies that actually recycle values.
func reusingPools() []poolFactory {
	quiet := WithLogger(zap.NewNop())
	return []poolFactory{
		{"mutex", func(reset func(*uint32)) ObjectPool[uint32] { return NewMutex(zeroU32, reset, quiet) }},
		{"spinlock", func(reset func(*uint32)) ObjectPool[uint32] { return NewSpinLock(zeroU32, reset, quiet) }},
		{"linear", func(reset func(*uint32)) ObjectPool[uint32] { return NewLinear(zeroU32, reset, quiet) }},
	}
}

func allPools() []poolFactory {
	quiet := WithLogger(zap.NewNop())
	return append(reusingPools(), poolFactory{
		"none", func(func(*uint32)) ObjectPool[uint32] { return NewNone(zeroU32, quiet) },
	})
}

func TestPullReturnsResetValue(t *testing.T) {
	for _, f := range allPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)
			for i := 0; i < 2; i++ {
				item := p.Acquire()
				assert.Equal(t, uint32(0), *item.Get())
				*item.Get() += 1
				item.Release()
			}
		})
	}
}

func TestAddressStableUnderSerialReuse(t *testing.T) {
	for _, f := range reusingPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)

			addrs := make(map[*uint32]struct{})
			for i := 0; i < 10; i++ {
				item := p.Acquire()
				v := item.Get()
				require.Equal(t, uint32(0), *v)
				*v += 1
				require.Equal(t, uint32(1), *v)
				*v += 1
				require.Equal(t, uint32(2), *item.Get())
				addrs[v] = struct{}{}
				item.Release()
			}
			assert.Len(t, addrs, 1)

			for i := 0; i < 2; i++ {
				item := p.Acquire()
				assert.Equal(t, uint32(0), *item.Get())
				*item.Get() += 1
				item.Release()
			}
		})
	}
}

func TestTwoInFlightNeverAlias(t *testing.T) {
	for _, f := range reusingPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)

			addrs := make(map[*uint32]struct{})
			for i := 0; i < 10; i++ {
				v1 := p.Acquire()
				v2 := p.Acquire()
				require.NotSame(t, v1.Get(), v2.Get())
				addrs[v1.Get()] = struct{}{}
				addrs[v2.Get()] = struct{}{}
				v2.Release()
				v1.Release()
			}
			assert.Len(t, addrs, 2)
		})
	}
}

func TestCrossGoroutineHandoff(t *testing.T) {
	for _, f := range allPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)

			msgs := make(chan uint32)
			var wg sync.WaitGroup
			for id := uint32(0); id < 5; id++ {
				wg.Add(1)
				go func(id uint32) {
					defer wg.Done()
					item := p.Acquire()
					defer item.Release()
					*item.Get() = id
					msgs <- *item.Get()
				}(id)
			}

			seen := make(map[uint32]struct{})
			for i := 0; i < 5; i++ {
				msg := <-msgs
				if msg < 5 {
					seen[msg] = struct{}{}
				}
			}
			wg.Wait()
			assert.Len(t, seen, 5)
		})
	}
}

func TestConcurrentPullsAreDistinct(t *testing.T) {
	for _, f := range allPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)

			const (
				workers   = 8
				perWorker = 50
			)
			held := make([][]Reusable[uint32], workers)
			testutil.Concurrently(workers, func(w int) {
				for i := 0; i < perWorker; i++ {
					held[w] = append(held[w], p.Acquire())
				}
			})

			seen := make(map[*uint32]struct{}, workers*perWorker)
			for _, items := range held {
				for _, item := range items {
					_, dup := seen[item.Get()]
					require.False(t, dup, "two live handles share a value")
					seen[item.Get()] = struct{}{}
				}
			}
			assert.Len(t, seen, workers*perWorker)

			for _, items := range held {
				for _, item := range items {
					item.Release()
				}
			}
		})
	}
}

func TestConcurrentChurnKeepsExclusiveOwnership(t *testing.T) {
	for _, f := range reusingPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)

			const (
				workers = 8
				rounds  = 2000
			)
			testutil.Concurrently(workers, func(w int) {
				for i := 0; i < rounds; i++ {
					item := p.Acquire()
					v := item.Get()
					if *v != 0 {
						t.Errorf("pulled value %d not reset", *v)
					}
					*v = uint32(w) + 1
					if *v != uint32(w)+1 {
						t.Errorf("value changed under owner")
					}
					item.Release()
				}
			})
		})
	}
}

func TestResetRunsOncePerRelease(t *testing.T) {
	for _, f := range reusingPools() {
		t.Run(f.name, func(t *testing.T) {
			var mu sync.Mutex
			var resets []uint32
			p := f.new(func(v *uint32) {
				mu.Lock()
				resets = append(resets, *v)
				mu.Unlock()
				*v = 0
			})

			item := p.Acquire()
			*item.Get() = 7
			assert.Empty(t, resets, "pull must not reset")
			item.Release()
			assert.Equal(t, []uint32{7}, resets)

			item = p.Acquire()
			assert.Equal(t, uint32(0), *item.Get(), "reused value carries reset state")
			item.Release()
			assert.Equal(t, []uint32{7, 0}, resets)
		})
	}
}

func TestNilResetKeepsValue(t *testing.T) {
	for _, f := range reusingPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(nil)

			item := p.Acquire()
			*item.Get() = 9
			item.Release()

			item = p.Acquire()
			defer item.Release()
			assert.Equal(t, uint32(9), *item.Get())
		})
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	for _, f := range allPools() {
		t.Run(f.name, func(t *testing.T) {
			resets := 0
			p := f.new(func(v *uint32) {
				resets++
				*v = 0
			})

			item := p.Acquire()
			require.NotNil(t, item.Get())
			item.Release()
			item.Release()

			assert.Nil(t, item.Get())
			if f.name != "none" {
				assert.Equal(t, 1, resets)
			}
		})
	}
}

func TestUseReleasesOnPanic(t *testing.T) {
	for _, f := range reusingPools() {
		t.Run(f.name, func(t *testing.T) {
			p := f.new(resetU32)

			var first *uint32
			assert.Panics(t, func() {
				Use(p, func(v *uint32) {
					first = v
					*v = 3
					panic("boom")
				})
			})

			Use(p, func(v *uint32) {
				assert.Same(t, first, v, "value went back to the pool")
				assert.Equal(t, uint32(0), *v)
			})
		})
	}
}

func TestNilInitPanics(t *testing.T) {
	assert.Panics(t, func() { NewNone[int](nil) })
	assert.Panics(t, func() { NewMutex[int](nil, nil) })
	assert.Panics(t, func() { NewSpinLock[int](nil, nil) })
	assert.Panics(t, func() { NewLinear[int](nil, nil) })
}

func TestNonePoolNeverReuses(t *testing.T) {
	p := NewNone(zeroU32, WithLogger(zap.NewNop()))

	a := p.Pull()
	*a.Get() = 5
	a.Release()

	b := p.Pull()
	defer b.Release()
	assert.Equal(t, uint32(0), *b.Get())
	assert.Equal(t, uint64(2), p.Stats().Allocated)
}

func TestFreeListStats(t *testing.T) {
	quiet := WithLogger(zap.NewNop())
	mp := NewMutex(zeroU32, resetU32, quiet, WithName("ids"))
	sp := NewSpinLock(zeroU32, resetU32, quiet)

	assert.Equal(t, "ids", mp.Name())
	assert.Equal(t, "spinlock", sp.Name())

	m1, m2 := mp.Pull(), mp.Pull()
	s1, s2 := sp.Pull(), sp.Pull()
	assert.Equal(t, 0, mp.Idle())
	assert.Equal(t, 0, sp.Idle())

	m1.Release()
	m2.Release()
	s1.Release()
	s2.Release()

	assert.Equal(t, 2, mp.Idle())
	assert.Equal(t, 2, sp.Idle())
	assert.Equal(t, Stats{Allocated: 2}, mp.Stats())
	assert.Equal(t, Stats{Allocated: 2}, sp.Stats())

	m3 := mp.Pull()
	defer m3.Release()
	assert.Equal(t, uint64(2), mp.Stats().Allocated, "pop does not construct")
}

func TestLinearPoolGrowsPastOnePage(t *testing.T) {
	p := NewLinear(zeroU32, resetU32, WithLogger(zap.NewNop()))
	assert.Equal(t, Stats{Allocated: lockfree.PageCapacity, Pages: 1}, p.Stats())

	items := make([]LinearReusable[uint32], 0, lockfree.PageCapacity+1)
	seen := make(map[*uint32]struct{})
	for i := 0; i < lockfree.PageCapacity+1; i++ {
		item := p.Pull()
		seen[item.Get()] = struct{}{}
		items = append(items, item)
	}

	assert.Len(t, seen, lockfree.PageCapacity+1)
	assert.Equal(t, 2, p.Stats().Pages)
	assert.Equal(t, uint64(2*lockfree.PageCapacity), p.Stats().Allocated)

	for i := range items {
		items[i].Release()
	}

	// everything is free again: no further growth
	for i := 0; i < 2*lockfree.PageCapacity; i++ {
		items[i%len(items)] = p.Pull()
		items[i%len(items)].Release()
	}
	assert.Equal(t, 2, p.Stats().Pages)
}

func TestLinearPoolLargeValues(t *testing.T) {
	p := NewLinear(
		func() []byte { return make([]byte, 0, 16*1024) },
		nil,
		WithLogger(zap.NewNop()),
	)

	items := make([]LinearReusable[[]byte], 0, 50)
	for i := 0; i < 50; i++ {
		items = append(items, p.Pull())
	}
	for i := range items {
		assert.Equal(t, 16*1024, cap(*items[i].Get()))
		items[i].Release()
	}
	assert.Equal(t, 2, p.Stats().Pages)
}

func TestLinearPoolTeardown(t *testing.T) {
	for _, n := range []int{0, 1, lockfree.PageCapacity, 5*lockfree.PageCapacity + 3} {
		p := NewLinear(func() []byte { return make([]byte, 8) }, nil, WithLogger(zap.NewNop()))
		items := make([]LinearReusable[[]byte], 0, n)
		for i := 0; i < n; i++ {
			items = append(items, p.Pull())
		}
		for i := range items {
			items[i].Release()
		}
		want := 1
		if n > lockfree.PageCapacity {
			want = (n + lockfree.PageCapacity - 1) / lockfree.PageCapacity
		}
		assert.Equal(t, want, p.Stats().Pages)
	}
}

func TestPoolsLogSlowPathEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	lp := NewLinear(zeroU32, nil, WithLogger(l), WithName("ids"))
	items := make([]LinearReusable[uint32], 0, lockfree.PageCapacity+1)
	for i := 0; i < lockfree.PageCapacity+1; i++ {
		items = append(items, lp.Pull())
	}
	for i := range items {
		items[i].Release()
	}

	grown := logs.FilterMessage("page chain grown").All()
	require.Len(t, grown, 1)
	assert.Equal(t, int64(2), grown[0].ContextMap()["pages"])
	assert.Equal(t, "ids", grown[0].ContextMap()["pool"])
	assert.Equal(t, "linear", grown[0].ContextMap()["kind"])

	mp := NewMutex(zeroU32, nil, WithLogger(l))
	m := mp.Pull()
	m.Release()
	m = mp.Pull()
	m.Release()
	assert.Equal(t, 1, logs.FilterMessage("value constructed").Len())
}

func TestDefaultLoggerIsGlobal(t *testing.T) {
	testutil.UseTestLogger(t)

	p := NewSpinLock(zeroU32, nil)
	Use[uint32](p, func(v *uint32) { *v = 1 })
	assert.Equal(t, uint64(1), p.Stats().Allocated)
}
