package lockfree

import "sync/atomic"

// AtomicCounter is a lock-free counter padded to its own cache line so that
// neighbouring counters do not false-share.
type AtomicCounter struct {
	value atomic.Uint64
	_     [7]uint64 //nolint:unused // 56 bytes padding
}

// NewAtomicCounter creates a new atomic counter initialized to zero.
func NewAtomicCounter() *AtomicCounter {
	return &AtomicCounter{}
}

// Increment atomically increments the counter by one.
func (c *AtomicCounter) Increment() {
	c.value.Add(1)
}

// Add atomically adds delta to the counter.
func (c *AtomicCounter) Add(delta uint64) {
	c.value.Add(delta)
}

// Get returns the current value.
func (c *AtomicCounter) Get() uint64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *AtomicCounter) Reset() {
	c.value.Store(0)
}
