// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen submission IDs so retried intake of the same
// submission is detected before it reaches the pipeline.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen, false if it was newly
	// recorded. This is the ONLY method for deduplication checks.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing it to be
	// retried. Use it only when a submission was marked as seen but
	// never reached the store (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// node is a single entry in the recency list.
type node struct {
	id   string
	next *node
}

// inMemoryDeduper implements Deduper with a map for membership and an
// intrusive singly linked list for recency.
// Bounded mode (maxSize > 0): the list tail is the oldest entry and is
// evicted first.
// Unbounded mode (maxSize <= 0): plain map, no eviction, no size limit.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*node // id -> node in bounded mode, nil values in unbounded mode
	head    *node            // most recently recorded
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 65536, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}

		n := &node{id: id, next: d.head}
		d.head = n
		d.seen[id] = n
	} else {
		d.seen[id] = nil
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen set, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)

	if d.maxSize <= 0 {
		return
	}

	// Unlink from the recency list.
	if d.head == n {
		d.head = n.next
		return
	}
	current := d.head
	for current != nil && current.next != n {
		current = current.next
	}
	if current != nil {
		current.next = n.next
	}
}

// evictOldest removes the oldest recorded entry, the list tail.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.head == nil {
		return
	}

	// Single entry: the head is also the tail.
	if d.head.next == nil {
		delete(d.seen, d.head.id)
		d.head = nil
		d.size.Add(-1)
		return
	}

	// Walk to the second-to-last node and drop its successor.
	current := d.head
	for current.next.next != nil {
		current = current.next
	}
	delete(d.seen, current.next.id)
	current.next = nil
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
