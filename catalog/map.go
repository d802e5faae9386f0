package catalog

// Map is a name to value map which remembers insertion order.
// Catalog iteration order is authoritative for trigger firing,
// so every catalog collection is a Map and never a builtin map.
//
// The zero value is ready to use.
type Map[T any] struct {
	keys  []string
	items map[string]T
}

// NewMap returns a new empty Map.
func NewMap[T any]() *Map[T] {
	return &Map[T]{items: make(map[string]T)}
}

// Set stores the value under the given name.
// Replacing an existing name keeps its original position.
func (m *Map[T]) Set(name string, value T) {
	if m.items == nil {
		m.items = make(map[string]T)
	}

	if _, exists := m.items[name]; !exists {
		m.keys = append(m.keys, name)
	}

	m.items[name] = value
}

// Add stores the value under the given name unless the name is already present.
// It reports whether the value was stored.
func (m *Map[T]) Add(name string, value T) bool {
	if _, exists := m.Get(name); exists {
		return false
	}

	m.Set(name, value)
	return true
}

// Get returns the value stored under name.
func (m *Map[T]) Get(name string) (T, bool) {
	if m == nil {
		var zero T
		return zero, false
	}

	v, ok := m.items[name]
	return v, ok
}

// Len returns the number of entries.
func (m *Map[T]) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the names in insertion order.
func (m *Map[T]) Keys() []string {
	if m == nil {
		return nil
	}

	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Values returns the values in insertion order.
func (m *Map[T]) Values() []T {
	if m == nil {
		return nil
	}

	values := make([]T, 0, len(m.keys))
	for _, k := range m.keys {
		values = append(values, m.items[k])
	}

	return values
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map[T]) Range(fn func(name string, value T) bool) {
	if m == nil {
		return
	}

	for _, k := range m.keys {
		if !fn(k, m.items[k]) {
			return
		}
	}
}
