// Package lockfree provides lock-free building blocks for the object pools:
// a fixed-capacity bitmask slot allocator (Page) and an append-only chain of
// pages that grows on demand (PageChain).
package lockfree

import (
	"math"
	"runtime"
	"sync/atomic"
)

// PageCapacity is the number of slots held by a single Page.
const PageCapacity = 32

// SlotID identifies a slot inside a Page.
type SlotID uint8

// Page owns PageCapacity eagerly constructed values and a free mask where
// bit i set means slot i is free. The mask is the only record of ownership:
// a slot whose bit is clear belongs to exactly one caller of Alloc until the
// matching Free.
type Page[T any] struct {
	free atomic.Uint32
	_    [60]byte //nolint:unused // keep the mask on its own cache line

	data [PageCapacity]T
}

// NewPage builds a page, calling init once for every slot.
func NewPage[T any](init func() T) *Page[T] {
	p := &Page[T]{}
	for i := range p.data {
		p.data[i] = init()
	}
	p.free.Store(math.MaxUint32)
	return p
}

// Alloc claims a free slot. It scans bits from 0 upwards and clears the first
// one it wins with a compare-and-swap. It returns false once the mask is
// fully zero.
//
// A lost CAS reloads the mask and retries the same bit; the scan itself
// always starts again from bit 0 on the next call.
func (p *Page[T]) Alloc() (SlotID, bool) {
	for i := 0; i < PageCapacity; i++ {
		bit := uint32(1) << i
		old := p.free.Load()
		for {
			if old == 0 {
				return 0, false
			}
			if old&bit == 0 {
				break
			}
			if p.free.CompareAndSwap(old, old&^bit) {
				return SlotID(i), true
			}
			old = p.free.Load()
		}
	}
	return 0, false
}

// Free marks slot id as free again. Callers must free each successfully
// allocated slot exactly once; the bit is not checked.
func (p *Page[T]) Free(id SlotID) {
	bit := uint32(1) << id
	for {
		old := p.free.Load()
		if p.free.CompareAndSwap(old, old|bit) {
			return
		}
		// Another slot changed under us, retry
		runtime.Gosched()
	}
}

// Get returns a pointer to the value in slot id. The caller must hold the
// slot through an outstanding Alloc; ownership is not re-checked here.
func (p *Page[T]) Get(id SlotID) *T {
	return &p.data[id]
}

// IsFull reports whether every slot is allocated.
func (p *Page[T]) IsFull() bool {
	return p.free.Load() == 0
}

// Mask returns a snapshot of the free mask.
func (p *Page[T]) Mask() uint32 {
	return p.free.Load()
}
