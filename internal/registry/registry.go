package registry

import (
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// Counter mints handles. The first handle is 1 and values are never reused
// within a process. Tables may share a counter so their handles never collide.
type Counter struct {
	last atomic.Int32
}

// Next returns a fresh handle.
func (c *Counter) Next() contracts.Handle {
	return contracts.Handle(c.last.Add(1))
}

// Table is a handle-indexed collection guarded by a single lock. The lock
// covers map access only; callers receive the value and do any blocking work
// on it outside the lock.
type Table[T any] struct {
	mu      sync.Mutex
	counter *Counter
	entries map[contracts.Handle]T
}

// NewTable creates an empty table minting handles from counter.
func NewTable[T any](counter *Counter) *Table[T] {
	return &Table[T]{
		counter: counter,
		entries: make(map[contracts.Handle]T),
	}
}

// Insert stores value under a fresh handle and returns the handle.
func (t *Table[T]) Insert(value T) contracts.Handle {
	handle := t.counter.Next()
	t.mu.Lock()
	t.entries[handle] = value
	t.mu.Unlock()
	return handle
}

// Get returns the value for handle, or false when the handle was never issued
// or has been removed.
func (t *Table[T]) Get(handle contracts.Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.entries[handle]
	return value, ok
}

// Remove deletes and returns the value for handle.
func (t *Table[T]) Remove(handle contracts.Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.entries[handle]
	if ok {
		delete(t.entries, handle)
	}
	return value, ok
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Drain removes every entry and returns the values.
func (t *Table[T]) Drain() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	values := make([]T, 0, len(t.entries))
	for handle, value := range t.entries {
		values = append(values, value)
		delete(t.entries, handle)
	}
	return values
}
