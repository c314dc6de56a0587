package spinlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lock := New([]int{})
	assert.False(t, lock.IsLocked())

	guard := lock.Lock()
	assert.True(t, lock.IsLocked())
	*guard.Get() = append(*guard.Get(), 1, 2, 3)
	guard.Unlock()

	assert.False(t, lock.IsLocked())

	guard = lock.Lock()
	defer guard.Unlock()
	assert.Equal(t, []int{1, 2, 3}, *guard.Get())
}

func TestTryLock(t *testing.T) {
	lock := New(0)

	guard, ok := lock.TryLock()
	require.True(t, ok)

	_, ok = lock.TryLock()
	assert.False(t, ok, "second TryLock must fail while held")

	guard.Unlock()

	guard, ok = lock.TryLock()
	require.True(t, ok)
	guard.Unlock()
}

func TestMutualExclusion(t *testing.T) {
	lock := New(0)

	const (
		workers = 8
		rounds  = 5000
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				g := lock.Lock()
				v := g.Get()
				*v = *v + 1
				g.Unlock()
			}
		}()
	}
	wg.Wait()

	g := lock.Lock()
	defer g.Unlock()
	assert.Equal(t, workers*rounds, *g.Get())
}

func TestUnlockOnPanic(t *testing.T) {
	lock := New(0)

	func() {
		defer func() { _ = recover() }()
		g := lock.Lock()
		defer g.Unlock()
		panic("boom")
	}()

	assert.False(t, lock.IsLocked())
	_, ok := lock.TryLock()
	assert.True(t, ok)
}
