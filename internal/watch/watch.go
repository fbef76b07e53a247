// Package watch provides a single-writer, multi-reader value that always holds
// the latest state. Readers poll with Load or block on Changed; intermediate
// values may be skipped.
package watch

import "sync"

// Value holds the most recent value sent by its writer.
type Value[T any] struct {
	mu      sync.RWMutex
	val     T
	version uint64
	changed chan struct{}
}

// New returns a Value initialised to v.
func New[T any](v T) *Value[T] {
	return &Value[T]{val: v, changed: make(chan struct{})}
}

// Send replaces the current value and wakes every waiter.
func (w *Value[T]) Send(v T) {
	w.mu.Lock()
	w.val = v
	w.version++
	close(w.changed)
	w.changed = make(chan struct{})
	w.mu.Unlock()
}

// Load returns the current value and its version. Version zero means the
// initial value was never replaced.
func (w *Value[T]) Load() (T, uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.val, w.version
}

// Borrow returns the current value.
func (w *Value[T]) Borrow() T {
	v, _ := w.Load()
	return v
}

// Changed returns a channel that is closed by the next Send.
func (w *Value[T]) Changed() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.changed
}
