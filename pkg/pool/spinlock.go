package pool

import (
	"github.com/ajitpratap0/lockfreepool/pkg/lockfree"
	"github.com/ajitpratap0/lockfreepool/pkg/spinlock"
)

// SpinLockPool follows the MutexPool protocol but guards its free list with
// a spin lock. It avoids parking goroutines under light contention and burns
// CPU under heavy contention.
type SpinLockPool[T any] struct {
	objects *spinlock.SpinLock[[]*T]

	init      func() T
	reset     func(*T)
	allocated lockfree.AtomicCounter
	opts      options
}

// SpinLockReusable is the handle returned by SpinLockPool.Pull.
type SpinLockReusable[T any] struct {
	pool *SpinLockPool[T]
	data *T
}

// NewSpinLock creates a spin-lock guarded pool.
func NewSpinLock[T any](init func() T, reset func(*T), opts ...Option) *SpinLockPool[T] {
	mustInit("spinlock", init)
	p := &SpinLockPool[T]{
		objects: spinlock.New[[]*T](nil),
		init:    init,
		reset:   reset,
		opts:    buildOptions("spinlock", opts),
	}
	p.opts.logger.Debug("pool created")
	return p
}

// Pull pops the most recently returned value or builds a new one.
func (p *SpinLockPool[T]) Pull() SpinLockReusable[T] {
	guard := p.objects.Lock()
	obj := popLast(guard.Get())
	guard.Unlock()

	if obj == nil {
		obj = p.create()
	}
	return SpinLockReusable[T]{pool: p, data: obj}
}

// Acquire implements ObjectPool.
func (p *SpinLockPool[T]) Acquire() Reusable[T] {
	r := p.Pull()
	return &r
}

// Stats implements ObjectPool.
func (p *SpinLockPool[T]) Stats() Stats {
	return Stats{Allocated: p.allocated.Get()}
}

// Name implements ObjectPool.
func (p *SpinLockPool[T]) Name() string {
	return p.opts.name
}

// Idle returns how many values are waiting on the free list.
func (p *SpinLockPool[T]) Idle() int {
	guard := p.objects.Lock()
	defer guard.Unlock()
	return len(*guard.Get())
}

func (p *SpinLockPool[T]) create() *T {
	v := p.init()
	logAllocated(p.opts.logger, p.allocated.Get()+1)
	p.allocated.Increment()
	return &v
}

func (p *SpinLockPool[T]) attach(obj *T) {
	if p.reset != nil {
		p.reset(obj)
	}
	guard := p.objects.Lock()
	objects := guard.Get()
	*objects = append(*objects, obj)
	guard.Unlock()
}

// Get returns the value, or nil once released.
func (r *SpinLockReusable[T]) Get() *T {
	return r.data
}

// Release resets the value and pushes it back on the pool's free list.
func (r *SpinLockReusable[T]) Release() {
	if r.pool == nil {
		return
	}
	pool, obj := r.pool, r.data
	r.pool, r.data = nil, nil
	pool.attach(obj)
}

var _ ObjectPool[int] = (*SpinLockPool[int])(nil)
