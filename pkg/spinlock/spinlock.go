// Package spinlock provides a minimal mutual-exclusion primitive built on a
// single atomic flag. Waiters spin on a compare-and-swap and yield the
// processor between attempts instead of parking.
//
// There is no fairness, no reentrancy and no poisoning: a panic while the
// lock is held releases it as long as Unlock runs in a deferred call, but
// whatever invariant the panicking code broke stays broken.
package spinlock

import (
	"runtime"
	"sync/atomic"
)

// SpinLock guards a value of type T.
type SpinLock[T any] struct {
	locked atomic.Bool
	data   T
}

// Guard grants exclusive access to the data of a locked SpinLock until
// Unlock is called.
type Guard[T any] struct {
	lock *SpinLock[T]
}

// New wraps data in an unlocked SpinLock.
func New[T any](data T) *SpinLock[T] {
	return &SpinLock[T]{data: data}
}

// Lock spins until the lock is acquired.
func (l *SpinLock[T]) Lock() Guard[T] {
	l.exchange(false, true)
	return Guard[T]{lock: l}
}

// TryLock acquires the lock only if it is free right now.
func (l *SpinLock[T]) TryLock() (Guard[T], bool) {
	if !l.locked.CompareAndSwap(false, true) {
		return Guard[T]{}, false
	}
	return Guard[T]{lock: l}, true
}

// IsLocked reports whether the lock is currently held.
func (l *SpinLock[T]) IsLocked() bool {
	return l.locked.Load()
}

func (l *SpinLock[T]) exchange(from, to bool) {
	for !l.locked.CompareAndSwap(from, to) {
		runtime.Gosched()
	}
}

// Get returns the guarded value. The pointer must not be used after Unlock.
func (g Guard[T]) Get() *T {
	return &g.lock.data
}

// Unlock releases the lock. Each Guard must be unlocked exactly once.
func (g Guard[T]) Unlock() {
	g.lock.exchange(true, false)
}
