package model

import "fmt"

// PersistentDict is a string-keyed, insertion-ordered mapping wrapper.
// Like PersistentList, it re-parents any inserted persistent or
// wrapper-container value to its own Top and dirties that Top on every
// mutation.
type PersistentDict[V any] struct {
	Base
	keys   []string
	values map[string]V
}

// NewPersistentDict builds an empty dict.
func NewPersistentDict[V any]() *PersistentDict[V] {
	return &PersistentDict[V]{values: make(map[string]V)}
}

func (d *PersistentDict[V]) connectChildren() {
	for _, k := range d.keys {
		promoteTopTo(d.State().Top, d.values[k])
	}
}

func (d *PersistentDict[V]) ensure() {
	if d.values == nil {
		d.values = make(map[string]V)
	}
}

// Len returns the number of entries.
func (d *PersistentDict[V]) Len() int { return len(d.keys) }

// Contains reports whether key is present.
func (d *PersistentDict[V]) Contains(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Get returns the value stored at key.
func (d *PersistentDict[V]) Get(key string) (V, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value at key, appending key to the insertion order if new.
func (d *PersistentDict[V]) Set(key string, value V) {
	d.ensure()
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	promoteTop(d, value)
	SetDirty(d)
}

// SetDefault returns the existing value at key, or stores and returns
// defaultValue if key is absent.
func (d *PersistentDict[V]) SetDefault(key string, defaultValue V) V {
	if v, ok := d.values[key]; ok {
		return v
	}
	d.Set(key, defaultValue)
	return defaultValue
}

// Delete removes key, if present.
func (d *PersistentDict[V]) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	SetDirty(d)
}

// Pop removes and returns the value at key.
func (d *PersistentDict[V]) Pop(key string) (V, bool) {
	v, ok := d.values[key]
	if ok {
		d.Delete(key)
	}
	return v, ok
}

// PopItem removes and returns the last inserted key/value pair.
func (d *PersistentDict[V]) PopItem() (string, V, bool) {
	if len(d.keys) == 0 {
		var zero V
		return "", zero, false
	}
	key := d.keys[len(d.keys)-1]
	v := d.values[key]
	d.Delete(key)
	return key, v, true
}

// Clear removes every entry.
func (d *PersistentDict[V]) Clear() {
	d.keys = nil
	d.values = make(map[string]V)
	SetDirty(d)
}

// Update copies every entry of other into d, in other's key order.
func (d *PersistentDict[V]) Update(other *PersistentDict[V]) {
	for _, k := range other.keys {
		d.Set(k, other.values[k])
	}
}

// Keys returns the keys in insertion order.
func (d *PersistentDict[V]) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the values in key-insertion order.
func (d *PersistentDict[V]) Values() []V {
	out := make([]V, len(d.keys))
	for i, k := range d.keys {
		out[i] = d.values[k]
	}
	return out
}

// Items returns a snapshot of key/value pairs in insertion order.
type DictItem[V any] struct {
	Key   string
	Value V
}

func (d *PersistentDict[V]) Items() []DictItem[V] {
	out := make([]DictItem[V], len(d.keys))
	for i, k := range d.keys {
		out[i] = DictItem[V]{Key: k, Value: d.values[k]}
	}
	return out
}

// MarshalYAML serializes the dict as a bare mapping. The value handed to the
// encoder is a Go map, so the document lists keys in sorted order; the
// dict's insertion order is not written.
func (d *PersistentDict[V]) MarshalYAML() (any, error) {
	m := make(map[string]V, len(d.keys))
	for _, k := range d.keys {
		m[k] = d.values[k]
	}
	return m, nil
}

// UnmarshalYAML populates the dict from a bare mapping. The mapping is
// decoded into a Go map first, so the key order of the loaded dict is not
// the document's order and is not defined; only keys added later with Set
// are appended in insertion order.
func (d *PersistentDict[V]) UnmarshalYAML(unmarshal func(any) error) error {
	var m map[string]V
	if err := unmarshal(&m); err != nil {
		return err
	}
	d.keys = nil
	d.values = make(map[string]V, len(m))
	for k, v := range m {
		d.keys = append(d.keys, k)
		d.values[k] = v
	}
	return nil
}

// CoerceDict builds a FieldSpec.Coerce function for a dict-typed field: it
// accepts an already-wrapped *PersistentDict[V], a native map[string]V
// assigned by user code, or a map[string]any produced by a generic document
// decode (as seen by Load), wrapping the latter two into a fresh
// PersistentDict.
func CoerceDict[V any]() func(any) (any, error) {
	return func(v any) (any, error) {
		switch val := v.(type) {
		case *PersistentDict[V]:
			return val, nil
		case map[string]V:
			d := NewPersistentDict[V]()
			for k, item := range val {
				d.Set(k, item)
			}
			return d, nil
		case map[string]any:
			d := NewPersistentDict[V]()
			for k, item := range val {
				t, ok := item.(V)
				if !ok {
					return nil, fmt.Errorf("dict key %q: expected %T, got %T", k, t, item)
				}
				d.Set(k, t)
			}
			return d, nil
		default:
			return nil, fmt.Errorf("expected a dict, got %T", v)
		}
	}
}
