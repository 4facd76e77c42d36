// Package handle holds the primitives used to hand Go state to the engine:
// owned opaque pointers and the context table that stands in for boxed
// callback contexts.
package handle

import (
	"sync"
	"sync/atomic"
)

// Pointer is a non-null opaque engine pointer.
//
// Pointer values are shared between goroutines freely. Whether the object
// behind them tolerates that is up to the engine, which serialises access to
// its objects internally; the wrapper does not enforce anything.
type Pointer struct {
	raw uintptr
}

// NewPointer wraps p. A zero p is an engine contract violation and panics.
func NewPointer(p uintptr) Pointer {
	if p == 0 {
		panic("handle: null engine pointer")
	}
	return Pointer{raw: p}
}

// Raw returns the wrapped pointer.
func (p Pointer) Raw() uintptr {
	return p.raw
}

// IsZero reports whether p was never assigned.
func (p Pointer) IsZero() bool {
	return p.raw == 0
}

// Table maps engine-visible context keys to Go values. Go pointers cannot be
// retained by C, so the engine is given a key instead and every callback
// resolves it back through Load.
//
// Keys start at 1 and are never reused, so a stale key can not resolve to a
// newer value.
type Table struct {
	next    atomic.Uintptr
	entries sync.Map
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Box stores v and returns its key.
func (t *Table) Box(v any) uintptr {
	key := t.next.Add(1)
	t.entries.Store(key, v)
	return key
}

// Load returns the value stored under key without removing it.
func (t *Table) Load(key uintptr) (any, bool) {
	if key == 0 {
		return nil, false
	}
	return t.entries.Load(key)
}

// Free removes key. It returns false if key was already freed or never boxed.
func (t *Table) Free(key uintptr) bool {
	if key == 0 {
		return false
	}
	_, ok := t.entries.LoadAndDelete(key)
	return ok
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	n := 0
	t.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// LoadAs is Load with a type assertion.
func LoadAs[T any](t *Table, key uintptr) (T, bool) {
	var zero T
	v, ok := t.Load(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
