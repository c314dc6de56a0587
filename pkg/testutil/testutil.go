// Package testutil provides testing utilities shared by the pool, harness
// and CLI tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/lockfreepool/pkg/logger"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// UseTestLogger installs a test logger as the global logger for the
// duration of the test.
func UseTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	prev := logger.Get()
	l := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
	logger.Set(l)
	t.Cleanup(func() { logger.Set(prev) })
	return l
}

// TestContext creates a test context with a 30-second timeout that is
// canceled when the test ends.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// AssertEventually asserts that a condition becomes true within the specified timeout.
// It checks the condition every 10ms until it succeeds or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// Concurrently runs fn on n goroutines that are released together and
// waits for all of them.
func Concurrently(n int, fn func(worker int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
}
