package lockfree

import (
	"sync/atomic"
)

// linkedPage is one node of a PageChain.
type linkedPage[T any] struct {
	page *Page[T]
	next atomic.Pointer[linkedPage[T]]
}

// PageChain is an append-only singly linked list of pages. Allocation walks
// the chain from the head and installs a new page at the tail when every
// page it visits is exhausted. Installed links are never changed or removed,
// so a traversal from the head is always safe.
//
// The chain never shrinks; pages are reclaimed together once the chain
// itself becomes unreachable.
type PageChain[T any] struct {
	head  linkedPage[T]
	init  func() T
	pages atomic.Int64

	// OnGrow, when set, is called by the goroutine whose page won the link
	// installation with the new page count. It must be set before the chain
	// is shared.
	OnGrow func(pages int)
}

// NewPageChain creates a chain holding a single page built with init.
func NewPageChain[T any](init func() T) *PageChain[T] {
	c := &PageChain[T]{init: init}
	c.head.page = NewPage(init)
	c.pages.Store(1)
	return c
}

// Alloc claims a slot somewhere in the chain, growing it if needed. It
// always succeeds.
func (c *PageChain[T]) Alloc() (*Page[T], SlotID) {
	node := &c.head
	for {
		if id, ok := node.page.Alloc(); ok {
			return node.page, id
		}
		node = c.nextOrCreate(node)
	}
}

// Pages returns the number of pages installed in the chain.
func (c *PageChain[T]) Pages() int {
	return int(c.pages.Load())
}

// nextOrCreate returns node's successor, installing a fresh page when there
// is none. When several goroutines race, exactly one page is installed and
// the others drop theirs and follow the winner.
func (c *PageChain[T]) nextOrCreate(node *linkedPage[T]) *linkedPage[T] {
	if next := node.next.Load(); next != nil {
		return next
	}

	candidate := &linkedPage[T]{page: NewPage(c.init)}
	if node.next.CompareAndSwap(nil, candidate) {
		n := int(c.pages.Add(1))
		if c.OnGrow != nil {
			c.OnGrow(n)
		}
		return candidate
	}

	// Lost the race: the candidate is garbage, use the installed page
	return node.next.Load()
}
