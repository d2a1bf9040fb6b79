package breadbot

import "reflect"

// PropertyMap is a type-keyed attribute store attached to builder nodes. Lookups
// fall back to the parent map; writes only touch the receiver.
type PropertyMap struct {
	parent *PropertyMap
	values map[reflect.Type]any
	order  []reflect.Type
}

// NewPropertyMap returns an empty map layered over parent, which may be nil.
func NewPropertyMap(parent *PropertyMap) *PropertyMap {
	return &PropertyMap{parent: parent, values: make(map[reflect.Type]any)}
}

// Put stores v under its dynamic type.
func (m *PropertyMap) Put(v any) {
	if v == nil {
		return
	}
	m.PutType(reflect.TypeOf(v), v)
}

// PutType stores v under an explicit type key.
func (m *PropertyMap) PutType(t reflect.Type, v any) {
	if _, ok := m.values[t]; !ok {
		m.order = append(m.order, t)
	}
	m.values[t] = v
}

// Get returns the property stored under t, searching parents.
func (m *PropertyMap) Get(t reflect.Type) (any, bool) {
	for p := m; p != nil; p = p.parent {
		if v, ok := p.values[t]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether a property of type t is visible from m.
func (m *PropertyMap) Has(t reflect.Type) bool {
	_, ok := m.Get(t)
	return ok
}

// Own returns the types stored directly on m, in insertion order.
func (m *PropertyMap) Own() []reflect.Type {
	if m == nil {
		return nil
	}
	return append([]reflect.Type(nil), m.order...)
}

// Types returns every visible type, ancestors first, without duplicates.
func (m *PropertyMap) Types() []reflect.Type {
	if m == nil {
		return nil
	}
	var chain []*PropertyMap
	for p := m; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	seen := make(map[reflect.Type]bool)
	var out []reflect.Type
	for i := len(chain) - 1; i >= 0; i-- {
		for _, t := range chain[i].order {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// Len returns the number of visible properties.
func (m *PropertyMap) Len() int {
	return len(m.Types())
}

// Compact flattens the visible properties into a parentless copy.
func (m *PropertyMap) Compact() *PropertyMap {
	out := NewPropertyMap(nil)
	for _, t := range m.Types() {
		v, _ := m.Get(t)
		out.PutType(t, v)
	}
	return out
}

// Property returns the property of type T visible from m.
func Property[T any](m *PropertyMap) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	v, ok := m.Get(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// HasProperty reports whether a property of type T is visible from m.
func HasProperty[T any](m *PropertyMap) bool {
	if m == nil {
		return false
	}
	return m.Has(reflect.TypeFor[T]())
}
