package pool

import (
	"github.com/ajitpratap0/lockfreepool/pkg/lockfree"
)

// NonePool performs no pooling at all: every Pull constructs a new value and
// Release simply drops it. It exists to compare the other strategies with
// plain allocation.
type NonePool[T any] struct {
	init      func() T
	allocated lockfree.AtomicCounter
	opts      options
}

// NoneReusable wraps a value created by a NonePool.
type NoneReusable[T any] struct {
	data *T
}

// NewNone creates a pass-through pool around init.
func NewNone[T any](init func() T, opts ...Option) *NonePool[T] {
	mustInit("none", init)
	p := &NonePool[T]{
		init: init,
		opts: buildOptions("none", opts),
	}
	p.opts.logger.Debug("pool created")
	return p
}

// Pull constructs a fresh value.
func (p *NonePool[T]) Pull() NoneReusable[T] {
	p.allocated.Increment()
	v := p.init()
	return NoneReusable[T]{data: &v}
}

// Acquire implements ObjectPool.
func (p *NonePool[T]) Acquire() Reusable[T] {
	r := p.Pull()
	return &r
}

// Stats implements ObjectPool.
func (p *NonePool[T]) Stats() Stats {
	return Stats{Allocated: p.allocated.Get()}
}

// Name implements ObjectPool.
func (p *NonePool[T]) Name() string {
	return p.opts.name
}

// Get returns the wrapped value, or nil once released.
func (r *NoneReusable[T]) Get() *T {
	return r.data
}

// Release drops the value without resetting it.
func (r *NoneReusable[T]) Release() {
	r.data = nil
}

var _ ObjectPool[int] = (*NonePool[int])(nil)
