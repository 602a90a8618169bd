package metadata

// View is a read-only, single-valued view of a store. Each key maps to its
// display value.
type View struct {
	m *Metadata
}

// View returns a read-only view of m. The view reflects later changes to m.
func (m *Metadata) View() View {
	return View{m: m}
}

// Keys returns the present keys in insertion order.
func (v View) Keys() []string {
	return v.m.Keys()
}

// Values returns the display value of every present key.
func (v View) Values() []string {
	values := make([]string, 0, len(v.m.keys))
	for _, k := range v.m.keys {
		values = append(values, v.m.Get(k))
	}
	return values
}

// Items returns key/display value pairs.
func (v View) Items() []Item {
	items := make([]Item, 0, len(v.m.keys))
	for _, k := range v.m.keys {
		items = append(items, Item{Key: k, Value: v.m.Get(k)})
	}
	return items
}

// Get returns the display value of key and whether the key is present.
func (v View) Get(key string) (string, bool) {
	if !v.m.Contains(key) {
		return "", false
	}
	return v.m.Get(key), true
}

// Len returns the number of present keys.
func (v View) Len() int {
	return v.m.Len()
}
