package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/pkg/lockfree"
)

// LinearPool is the lock-free pool. Values live in place inside a chain of
// 32-slot pages; Pull claims a slot by clearing a bit in a page mask and
// Release resets the value where it sits and sets the bit again. The only
// contended operations are the mask CAS and, when every page is busy, the
// CAS that links a new page at the tail.
//
// Pages are never given back while the pool is alive, so a LinearPool's
// footprint is set by its peak number of concurrently pulled values.
type LinearPool[T any] struct {
	chain *lockfree.PageChain[T]
	reset func(*T)
	opts  options
}

// LinearReusable is the handle returned by LinearPool.Pull: the page and
// slot it owns until Release.
type LinearReusable[T any] struct {
	pool *LinearPool[T]
	page *lockfree.Page[T]
	id   lockfree.SlotID
}

// NewLinear creates a lock-free pool. The first page (32 values) is built
// immediately; init and reset must be safe to call from several goroutines.
func NewLinear[T any](init func() T, reset func(*T), opts ...Option) *LinearPool[T] {
	mustInit("linear", init)
	p := &LinearPool[T]{
		chain: lockfree.NewPageChain(init),
		reset: reset,
		opts:  buildOptions("linear", opts),
	}
	p.chain.OnGrow = p.grown
	p.opts.logger.Debug("pool created", zap.Int("page_capacity", lockfree.PageCapacity))
	return p
}

// Pull claims a slot, growing the chain when every page is in use.
func (p *LinearPool[T]) Pull() LinearReusable[T] {
	page, id := p.chain.Alloc()
	return LinearReusable[T]{pool: p, page: page, id: id}
}

// Acquire implements ObjectPool.
func (p *LinearPool[T]) Acquire() Reusable[T] {
	r := p.Pull()
	return &r
}

// Stats implements ObjectPool.
func (p *LinearPool[T]) Stats() Stats {
	pages := p.chain.Pages()
	return Stats{
		Allocated: uint64(pages) * lockfree.PageCapacity,
		Pages:     pages,
	}
}

// Name implements ObjectPool.
func (p *LinearPool[T]) Name() string {
	return p.opts.name
}

func (p *LinearPool[T]) grown(pages int) {
	p.opts.logger.Debug("page chain grown",
		zap.Int("pages", pages),
		zap.Int("capacity", pages*lockfree.PageCapacity))
}

// Get returns a pointer to the pooled value, or nil once released. The
// pointer stays the same across reuse of the slot.
func (r *LinearReusable[T]) Get() *T {
	if r.page == nil {
		return nil
	}
	return r.page.Get(r.id)
}

// Release resets the value in place and frees its slot.
func (r *LinearReusable[T]) Release() {
	if r.pool == nil {
		return
	}
	pool, page, id := r.pool, r.page, r.id
	r.pool, r.page = nil, nil

	if pool.reset != nil {
		pool.reset(page.Get(id))
	}
	page.Free(id)
}

var _ ObjectPool[int] = (*LinearPool[int])(nil)
