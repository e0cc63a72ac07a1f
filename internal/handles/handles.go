// Package handles maps Go values to integer handles that can be stored in
// C memory, such as the opaque pointer of an AVIOContext.
//
// Go pointers must not be kept by C code, so the AVIO callbacks receive the
// handle and look the owning Go value up again on every call.
package handles

import "sync"

// Table is a thread-safe registry of values of type T.
// The zero value is ready to use. Handle 0 is never issued.
type Table[T any] struct {
	mu     sync.RWMutex
	values map[uintptr]T
	next   uintptr
}

// Register stores v and returns its handle.
func (t *Table[T]) Register(v T) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.values == nil {
		t.values = make(map[uintptr]T)
	}
	t.next++
	t.values[t.next] = v
	return t.next
}

// Lookup returns the value registered under id.
func (t *Table[T]) Lookup(id uintptr) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[id]
	return v, ok
}

// Unregister forgets id. Unknown handles are ignored.
func (t *Table[T]) Unregister(id uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, id)
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}
