package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/lockfreepool/pkg/logger"
)

func TestConcurrently(t *testing.T) {
	var seen [8]atomic.Bool
	var calls atomic.Int32

	Concurrently(len(seen), func(worker int) {
		seen[worker].Store(true)
		calls.Add(1)
	})

	assert.Equal(t, int32(len(seen)), calls.Load())
	for i := range seen {
		assert.True(t, seen[i].Load(), "worker %d did not run", i)
	}
}

func TestAssertEventually(t *testing.T) {
	var ready atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		ready.Store(true)
	}()
	AssertEventually(t, ready.Load, time.Second, "flag never set")
}

func TestUseTestLogger(t *testing.T) {
	before := logger.Get()
	t.Run("scoped", func(t *testing.T) {
		l := UseTestLogger(t)
		assert.Same(t, l, logger.Get())
	})
	assert.Same(t, before, logger.Get())
}

func TestTestContext(t *testing.T) {
	ctx := TestContext(t)
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), deadline, time.Second)
}
