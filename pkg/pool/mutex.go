package pool

import (
	"sync"

	"github.com/ajitpratap0/lockfreepool/pkg/lockfree"
)

// MutexPool keeps returned values on a slice guarded by a sync.Mutex. Values
// are stored by pointer, so a value keeps its address for its whole life in
// the pool.
type MutexPool[T any] struct {
	mu      sync.Mutex
	objects []*T

	init      func() T
	reset     func(*T)
	allocated lockfree.AtomicCounter
	opts      options
}

// MutexReusable is the handle returned by MutexPool.Pull. It owns its value
// until Release pushes it back.
type MutexReusable[T any] struct {
	pool *MutexPool[T]
	data *T
}

// NewMutex creates a mutex guarded pool. init builds new values when the free
// list is empty; reset, if not nil, runs on every released value.
func NewMutex[T any](init func() T, reset func(*T), opts ...Option) *MutexPool[T] {
	mustInit("mutex", init)
	p := &MutexPool[T]{
		init:  init,
		reset: reset,
		opts:  buildOptions("mutex", opts),
	}
	p.opts.logger.Debug("pool created")
	return p
}

// Pull pops the most recently returned value or builds a new one.
func (p *MutexPool[T]) Pull() MutexReusable[T] {
	p.mu.Lock()
	obj := popLast(&p.objects)
	p.mu.Unlock()

	if obj == nil {
		obj = p.create()
	}
	return MutexReusable[T]{pool: p, data: obj}
}

// Acquire implements ObjectPool.
func (p *MutexPool[T]) Acquire() Reusable[T] {
	r := p.Pull()
	return &r
}

// Stats implements ObjectPool.
func (p *MutexPool[T]) Stats() Stats {
	return Stats{Allocated: p.allocated.Get()}
}

// Name implements ObjectPool.
func (p *MutexPool[T]) Name() string {
	return p.opts.name
}

// Idle returns how many values are waiting on the free list.
func (p *MutexPool[T]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}

func (p *MutexPool[T]) create() *T {
	v := p.init()
	logAllocated(p.opts.logger, p.allocated.Get()+1)
	p.allocated.Increment()
	return &v
}

func (p *MutexPool[T]) attach(obj *T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.mu.Lock()
	p.objects = append(p.objects, obj)
	p.mu.Unlock()
}

// Get returns the value, or nil once released.
func (r *MutexReusable[T]) Get() *T {
	return r.data
}

// Release resets the value and pushes it back on the pool's free list.
func (r *MutexReusable[T]) Release() {
	if r.pool == nil {
		return
	}
	pool, obj := r.pool, r.data
	r.pool, r.data = nil, nil
	pool.attach(obj)
}

// popLast removes the last element of a free list, clearing the vacated
// cell so the slice does not pin it.
func popLast[T any](objects *[]*T) *T {
	n := len(*objects)
	if n == 0 {
		return nil
	}
	obj := (*objects)[n-1]
	(*objects)[n-1] = nil
	*objects = (*objects)[:n-1]
	return obj
}

var _ ObjectPool[int] = (*MutexPool[int])(nil)
