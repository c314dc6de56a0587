package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/pkg/logger"
)

// Reusable is a handle on a pulled value. Get returns the value while the
// handle is live; Release resets the value and hands it back to the pool.
// After Release the handle is inert: Get returns nil and Release does
// nothing.
type Reusable[T any] interface {
	Get() *T
	Release()
}

// ObjectPool is the variant-agnostic view of a pool. Concrete pools also
// expose a typed Pull that avoids boxing the handle.
type ObjectPool[T any] interface {
	Acquire() Reusable[T]
	Stats() Stats
	Name() string
}

// Stats is a snapshot of a pool's slow-path counters. They are only
// touched when a value is constructed or a page is added, so reading them
// costs nothing on the Pull/Release fast path.
type Stats struct {
	// Allocated counts calls to init
	Allocated uint64
	// Pages is the number of pages in a LinearPool chain, zero otherwise
	Pages int
}

// Option configures a pool at construction time.
type Option func(*options)

type options struct {
	name   string
	logger *zap.Logger
}

// WithName labels the pool in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger used for construction and growth events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(kind string, opts []Option) options {
	o := options{name: kind}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	o.logger = o.logger.With(zap.String("pool", o.name), zap.String("kind", kind))
	return o
}

// Use pulls a value, hands it to fn and releases it on every exit path,
// including a panic inside fn.
func Use[T any](p ObjectPool[T], fn func(*T)) {
	item := p.Acquire()
	defer item.Release()
	fn(item.Get())
}

func logAllocated(l *zap.Logger, n uint64) {
	if ce := l.Check(zap.DebugLevel, "value constructed"); ce != nil {
		ce.Write(zap.Uint64("allocated", n))
	}
}

func mustInit[T any](kind string, init func() T) {
	if init == nil {
		panic("pool " + kind + ": init function must be provided")
	}
}
