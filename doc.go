// Package lockfreepool is a family of concurrent object pools for Go.
//
// A pool hands out values of a type T built by an init function and takes
// them back through a reset function, so hot paths reuse large values instead
// of allocating them again. Four strategies share one contract:
//
//   - none: no pooling; the allocation baseline
//   - mutex: a free list guarded by sync.Mutex
//   - spinlock: the same free list behind a spin lock
//   - linear: a lock-free, append-only chain of 32-slot pages
//
// # Layout
//
//   - pkg/pool: the pools, their handles and the shared ObjectPool contract
//   - pkg/lockfree: Page, the 32-slot bitmask allocator, and PageChain
//   - pkg/spinlock: the spin lock used by the spinlock pool
//   - pkg/metrics: Prometheus collectors over pool statistics
//   - pkg/observability: OpenTelemetry tracing for benchmark runs
//   - pkg/config, pkg/logger, pkg/errors: configuration, logging and errors
//   - internal/bench and cmd/poolbench: the benchmark harness and its CLI
//
// # Quick Start
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
// Compare the strategies on the current machine:
//
//	poolbench run --variants mutex,linear --scenarios alloc-mt --workers 8 --pretty
package lockfreepool
