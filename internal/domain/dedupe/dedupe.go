// Package dedupe remembers inbound message ids so redelivered chat webhooks
// are answered once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen message ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded, recording it
	// if not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed command can be retried with the same
	// message id.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// entry is a node of the insertion-ordered list.
type entry struct {
	id         string
	prev, next *entry
}

// inMemoryDeduper keeps ids in a map and an insertion-ordered doubly linked
// list. When bounded, the oldest id is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*entry
	oldest  *entry
	newest  *entry
	maxSize int // <= 0 means unbounded
	free    sync.Pool
}

// NewInMemoryDeduper creates a deduper. It keeps 50_000 ids unless
// WithMaxSize says otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 50_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*entry)
	d.free.New = func() any { return &entry{} }
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.unlink(d.oldest)
	}

	e := d.free.Get().(*entry)
	e.id = id
	e.prev = d.newest
	if d.newest != nil {
		d.newest.next = e
	} else {
		d.oldest = e
	}
	d.newest = e
	d.seen[id] = e
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.seen[id]; ok {
		d.unlink(e)
	}
}

// unlink removes e from the list and the map. d.mu must be held.
func (d *inMemoryDeduper) unlink(e *entry) {
	if e == nil {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		d.oldest = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		d.newest = e.prev
	}
	delete(d.seen, e.id)
	*e = entry{}
	d.free.Put(e)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
