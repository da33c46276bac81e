package model

import (
	"fmt"
	"sort"
)

// PersistentList is an ordered sequence wrapper. Every mutating method
// re-parents any inserted persistent or wrapper-container values to the
// list's Top, then dirties that Top. It is never shared between two
// persistent objects (spec invariant 6) -- construct a fresh one per field.
type PersistentList[T comparable] struct {
	Base
	items []T
}

// NewPersistentList builds a list from the given items without marking
// anything dirty (mirrors construction from a freshly loaded document).
func NewPersistentList[T comparable](items ...T) *PersistentList[T] {
	l := &PersistentList[T]{items: append([]T(nil), items...)}
	return l
}

func (l *PersistentList[T]) connectChildren() {
	for _, v := range l.items {
		promoteTopTo(l.State().Top, v)
	}
}

// Len returns the number of items.
func (l *PersistentList[T]) Len() int { return len(l.items) }

// All returns a copy of the underlying items, in order.
func (l *PersistentList[T]) All() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// At returns the item at index i.
func (l *PersistentList[T]) At(i int) T { return l.items[i] }

// Set replaces the item at index i.
func (l *PersistentList[T]) Set(i int, v T) {
	l.items[i] = v
	promoteTop(l, v)
	SetDirty(l)
}

// SetAll replaces the entire contents (the `l[:] = seq` idiom).
func (l *PersistentList[T]) SetAll(items []T) {
	l.items = append([]T(nil), items...)
	for _, v := range l.items {
		promoteTop(l, v)
	}
	SetDirty(l)
}

// Delete removes the item at index i.
func (l *PersistentList[T]) Delete(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
	SetDirty(l)
}

// DeleteSlice removes items in [start, end).
func (l *PersistentList[T]) DeleteSlice(start, end int) {
	l.items = append(l.items[:start], l.items[end:]...)
	SetDirty(l)
}

// Append adds an item to the end.
func (l *PersistentList[T]) Append(v T) {
	l.items = append(l.items, v)
	promoteTop(l, v)
	SetDirty(l)
}

// Extend appends each item in vs.
func (l *PersistentList[T]) Extend(vs ...T) {
	l.items = append(l.items, vs...)
	for _, v := range vs {
		promoteTop(l, v)
	}
	SetDirty(l)
}

// Insert inserts v at index i.
func (l *PersistentList[T]) Insert(i int, v T) {
	l.items = append(l.items, *new(T))
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	promoteTop(l, v)
	SetDirty(l)
}

// Pop removes and returns the item at index i (default: the last item).
func (l *PersistentList[T]) Pop(i ...int) T {
	idx := len(l.items) - 1
	if len(i) > 0 {
		idx = i[0]
	}
	v := l.items[idx]
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	SetDirty(l)
	return v
}

// Remove deletes the first occurrence of v.
func (l *PersistentList[T]) Remove(v T) {
	for i, item := range l.items {
		if item == v {
			l.items = append(l.items[:i], l.items[i+1:]...)
			SetDirty(l)
			return
		}
	}
}

// Reverse reverses the list in place.
func (l *PersistentList[T]) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	SetDirty(l)
}

// Sort sorts the list in place using less.
func (l *PersistentList[T]) Sort(less func(a, b T) bool) {
	sort.SliceStable(l.items, func(i, j int) bool { return less(l.items[i], l.items[j]) })
	SetDirty(l)
}

// MarshalYAML serializes the list as a bare sequence, per the wrapper
// container contract.
func (l *PersistentList[T]) MarshalYAML() (any, error) {
	return l.All(), nil
}

// UnmarshalYAML populates the list from a bare sequence.
func (l *PersistentList[T]) UnmarshalYAML(unmarshal func(any) error) error {
	var items []T
	if err := unmarshal(&items); err != nil {
		return err
	}
	l.items = items
	return nil
}

// CoerceList builds a FieldSpec.Coerce function for a list-typed field: it
// accepts an already-wrapped *PersistentList[T], a native []T assigned by
// user code, or a []any produced by a generic document decode (as seen by
// Load), wrapping the latter two into a fresh PersistentList.
func CoerceList[T comparable]() func(any) (any, error) {
	return func(v any) (any, error) {
		switch val := v.(type) {
		case *PersistentList[T]:
			return val, nil
		case []T:
			return NewPersistentList(val...), nil
		case []any:
			items := make([]T, len(val))
			for i, e := range val {
				t, ok := e.(T)
				if !ok {
					return nil, fmt.Errorf("list item %d: expected %T, got %T", i, t, e)
				}
				items[i] = t
			}
			return NewPersistentList(items...), nil
		default:
			return nil, fmt.Errorf("expected a list, got %T", v)
		}
	}
}
