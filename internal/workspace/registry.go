// Package workspace keeps per-profile working state in memory: the open
// bill of a cashier and the purchase draft being assembled from uploads.
package workspace

import (
	"fmt"
	"sync"
	"time"
)

// Key identifies the owner of a working set.
type Key struct {
	ShopID uint
	UserID uint
}

func (k Key) String() string { return fmt.Sprintf("%d/%d", k.ShopID, k.UserID) }

type entry[T any] struct {
	mu      sync.Mutex
	value   *T
	touched time.Time
}

// Registry holds one working set per key. Access to a single working set is
// serialized; different keys never wait on each other.
type Registry[T any] struct {
	mu      sync.Mutex
	newFn   func(Key) *T
	entries map[Key]*entry[T]
	now     func() time.Time
}

// NewRegistry takes the constructor used on first access of a key.
func NewRegistry[T any](newFn func(Key) *T) *Registry[T] {
	return &Registry[T]{
		newFn:   newFn,
		entries: make(map[Key]*entry[T]),
		now:     time.Now,
	}
}

// With runs fn on the working set of k, creating it on first use.
// fn must not retain the pointer.
func (r *Registry[T]) With(k Key, fn func(v *T) error) error {
	r.mu.Lock()
	e, ok := r.entries[k]
	if !ok {
		e = &entry[T]{value: r.newFn(k)}
		r.entries[k] = e
	}
	e.touched = r.now()
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

func (r *Registry[T]) Drop(k Key) {
	r.mu.Lock()
	delete(r.entries, k)
	r.mu.Unlock()
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Evict drops working sets untouched for longer than idle and returns how
// many were removed.
func (r *Registry[T]) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	n := 0
	for k, e := range r.entries {
		if e.touched.Before(cutoff) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}
