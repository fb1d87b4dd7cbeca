// Package collect implements deferred removal queues.
//
// Engine-owned handles must not be destroyed in the middle of a frame: a
// render pass may still hold a raw view into a resource that some other
// subsystem just stopped using. Instead of destroying in place, callers Push
// the key and the owner Drains the queue at a single well-known point in the
// control loop (end of frame, shutdown).
//
//	var q collect.Queue[ident.ID]
//	q.Push(id)          // anywhere, any time
//	...
//	q.Drain(erase)      // end of frame
//
// Keys pushed while a Drain is running land in the next Drain.
package collect

import (
	"sync"
)

// Queue is an ordered pending-removal list. The zero value is ready to use.
type Queue[K comparable] struct {
	items []K
	mu    sync.Mutex
}

// Push appends k. Duplicates are kept; the drain callback must be idempotent.
func (q *Queue[K]) Push(k K) {
	q.mu.Lock()
	q.items = append(q.items, k)
	q.mu.Unlock()
}

// Len returns the number of pending keys.
func (q *Queue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the pending keys in push order.
func (q *Queue[K]) Snapshot() []K {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]K(nil), q.items...)
}

// Drain hands every pending key to fn in push order and clears the queue.
// It returns the number of keys drained. fn runs without the queue lock
// held, so it may Push.
func (q *Queue[K]) Drain(fn func(K)) int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, k := range items {
		fn(k)
	}
	return len(items)
}

// Reset drops every pending key without visiting it.
func (q *Queue[K]) Reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
