// Package pool implements type-safe object pools that hand out reusable
// values of any type T and take them back, reset, when the caller is done.
// Reusing values keeps large buffers out of the garbage collector's way on
// hot paths.
//
// # Architecture
//
// Four strategies share one contract and are interchangeable behind the
// ObjectPool interface:
//
//   - NonePool[T]: no reuse, every Pull calls init. It is the baseline the
//     other strategies are measured against.
//   - MutexPool[T]: a LIFO free list guarded by a sync.Mutex
//   - SpinLockPool[T]: the same free list behind a spin lock
//   - LinearPool[T]: a lock-free chain of 32-slot pages
//
// The free-list pools store *T, so a value keeps its address while it moves
// in and out of the pool. LinearPool values live in place inside their page
// and never move at all.
//
// # Handles
//
// Pull returns a handle. Get returns the value while the handle is live and
// Release resets the value and returns it:
//
//	p := pool.NewLinear(
//		func() []byte { return make([]byte, 0, 16*1024) },
//		func(b *[]byte) { *b = (*b)[:0] },
//	)
//
//	buf := p.Pull()
//	defer buf.Release()
//	*buf.Get() = append(*buf.Get(), "payload"...)
//
// Release is idempotent. After the first call Get returns nil. A handle that
// is never released leaks its value: the pool builds a replacement on the
// next Pull and a LinearPool keeps the slot busy for its whole life.
//
// Use wraps the pull/release pair for callers that only need the value
// inside a function:
//
//	pool.Use[[]byte](p, func(b *[]byte) {
//		*b = append(*b, "payload"...)
//	})
//
// # Reset
//
// The reset function runs exactly once per Release, on the releasing
// goroutine, before the value becomes visible to any other Pull. It never
// runs on Pull. A nil reset leaves released values untouched.
//
// # Growth
//
// The free-list pools grow by one value whenever Pull finds the list empty.
// LinearPool grows by a whole page (32 values) when every slot of every page
// is in use. Neither shrinks while the pool is alive.
//
// # Statistics
//
// Stats reports how many values were constructed and, for LinearPool, how
// many pages the chain holds. The counters are only touched on the slow
// path. The metrics package exports them to Prometheus.
package pool
