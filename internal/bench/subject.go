package bench

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/pkg/errors"
	"github.com/ajitpratap0/lockfreepool/pkg/metrics"
	"github.com/ajitpratap0/lockfreepool/pkg/pool"
)

// batch holds the handles pulled by one worker.
type batch interface {
	fill(n int)
	drain()
}

// typedBatch keeps handles in their concrete type so that pulls in the
// timed region do not box them.
type typedBatch[H any] struct {
	pull    func() H
	release func(*H)
	items   []H
}

func (b *typedBatch[H]) fill(n int) {
	for i := 0; i < n; i++ {
		b.items = append(b.items, b.pull())
	}
}

func (b *typedBatch[H]) drain() {
	for i := range b.items {
		b.release(&b.items[i])
	}
	clear(b.items)
	b.items = b.items[:0]
}

func newTypedBatch[H any](pull func() H, release func(*H), capacity int) batch {
	return &typedBatch[H]{pull: pull, release: release, items: make([]H, 0, capacity)}
}

// subject is one freshly built pool under test.
type subject struct {
	stats    metrics.StatsSource
	newBatch func(capacity int) batch
}

type variantSpec struct {
	description string
	build       func(payload int, opts ...pool.Option) subject
}

func payloadInit(payload int) func() []byte {
	return func() []byte { return make([]byte, 0, payload) }
}

func payloadReset(b *[]byte) { *b = (*b)[:0] }

var variants = map[string]variantSpec{
	"none": {
		description: "no pooling, every pull allocates",
		build: func(payload int, opts ...pool.Option) subject {
			p := pool.NewNone(payloadInit(payload), opts...)
			return subject{stats: p, newBatch: func(c int) batch {
				return newTypedBatch(p.Pull, (*pool.NoneReusable[[]byte]).Release, c)
			}}
		},
	},
	"mutex": {
		description: "free list behind sync.Mutex",
		build: func(payload int, opts ...pool.Option) subject {
			p := pool.NewMutex(payloadInit(payload), payloadReset, opts...)
			return subject{stats: p, newBatch: func(c int) batch {
				return newTypedBatch(p.Pull, (*pool.MutexReusable[[]byte]).Release, c)
			}}
		},
	},
	"spinlock": {
		description: "free list behind a spin lock",
		build: func(payload int, opts ...pool.Option) subject {
			p := pool.NewSpinLock(payloadInit(payload), payloadReset, opts...)
			return subject{stats: p, newBatch: func(c int) batch {
				return newTypedBatch(p.Pull, (*pool.SpinLockReusable[[]byte]).Release, c)
			}}
		},
	},
	"linear": {
		description: "lock-free chain of 32-slot pages",
		build: func(payload int, opts ...pool.Option) subject {
			p := pool.NewLinear(payloadInit(payload), payloadReset, opts...)
			return subject{stats: p, newBatch: func(c int) batch {
				return newTypedBatch(p.Pull, (*pool.LinearReusable[[]byte]).Release, c)
			}}
		},
	},
}

// Variants returns the known pool variants, sorted.
func Variants() []string {
	return sortedKeys(variants)
}

// DescribeVariant returns a one-line description of a variant.
func DescribeVariant(name string) (string, error) {
	v, ok := variants[name]
	if !ok {
		return "", unknown("variant", name, Variants())
	}
	return v.description, nil
}

func buildSubject(variant string, payload int, l *zap.Logger) (subject, error) {
	v, ok := variants[variant]
	if !ok {
		return subject{}, unknown("variant", variant, Variants())
	}
	return v.build(payload, pool.WithName(variant), pool.WithLogger(l)), nil
}

func unknown(kind, name string, known []string) error {
	return errors.Newf(errors.ErrorTypeNotFound, "unknown %s %q", kind, name).
		WithDetail("known", known)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
