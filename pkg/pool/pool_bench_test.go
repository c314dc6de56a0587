package pool

import (
	"testing"

	"go.uber.org/zap"
)

const benchPayload = 16 * 1024

func newPayload() []byte { return make([]byte, 0, benchPayload) }

func benchPools() map[string]ObjectPool[[]byte] {
	quiet := WithLogger(zap.NewNop())
	return map[string]ObjectPool[[]byte]{
		"none":     NewNone(newPayload, quiet),
		"mutex":    NewMutex(newPayload, nil, quiet),
		"spinlock": NewSpinLock(newPayload, nil, quiet),
		"linear":   NewLinear(newPayload, nil, quiet),
	}
}

func BenchmarkAcquireRelease(b *testing.B) {
	for name, p := range benchPools() {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				item := p.Acquire()
				item.Release()
			}
		})
	}
}

func BenchmarkAcquireReleaseParallel(b *testing.B) {
	for name, p := range benchPools() {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					item := p.Acquire()
					item.Release()
				}
			})
		})
	}
}

func BenchmarkLinearPull(b *testing.B) {
	p := NewLinear(newPayload, nil, WithLogger(zap.NewNop()))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		item := p.Pull()
		item.Release()
	}
}
