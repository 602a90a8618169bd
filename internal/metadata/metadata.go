// Package metadata implements a multi-valued tag store for audio track
// metadata. A store holds zero, one or many values per tag, remembers which
// tags were deleted, and can be compared with another store to score how well
// two tracks match.
//
// A Metadata value is not safe for concurrent mutation; give each goroutine
// its own store (see Clone) and combine results on a single goroutine.
package metadata

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dmitrijs2005/trackmeta/internal/common"
)

// MultiValuedJoiner joins the values of a multi-valued tag for display.
const MultiValuedJoiner = "; "

// HiddenPrefix marks internal tags such as "~length". Hidden tags are stored
// like any other tag; the prefix is a naming convention for callers.
const HiddenPrefix = "~"

// TagState describes what a store knows about a key.
type TagState int

const (
	// TagUntouched means the key was never set or its deletion was cleared.
	TagUntouched TagState = iota
	// TagPresent means the key holds a (possibly explicitly empty) value list.
	TagPresent
	// TagDeleted means the key was explicitly or implicitly deleted.
	TagDeleted
)

func (s TagState) String() string {
	switch s {
	case TagPresent:
		return "present"
	case TagDeleted:
		return "deleted"
	default:
		return "untouched"
	}
}

// RawItem is a key with its unjoined values.
type RawItem struct {
	Key    string
	Values []string
}

// Item is a single key/value pair.
type Item struct {
	Key   string
	Value string
}

// Metadata is the tag store of a single track.
type Metadata struct {
	// store maps present keys to their ordered values
	store map[string][]string
	// keys keeps present keys in insertion order
	keys []string
	// deleted holds keys removed since the last ClearDeleted
	deleted map[string]struct{}

	length    int
	hasLength bool
}

// Option configures a store at construction time.
type Option func(*Metadata)

// WithDeleted marks keys as deleted after the initial values are applied.
func WithDeleted(keys ...string) Option {
	return func(m *Metadata) {
		for _, k := range keys {
			m.Delete(k)
		}
	}
}

// WithLength sets the track duration in milliseconds.
func WithLength(ms int) Option {
	return func(m *Metadata) {
		m.SetLength(ms)
	}
}

// New returns an empty store.
func New(opts ...Option) *Metadata {
	m := &Metadata{
		store:   make(map[string][]string),
		deleted: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromMap builds a store from a plain mapping. Values may be strings,
// integers (or whole float64 numbers, as decoded from JSON) or sequences of
// those; every entry goes through the same rules as Assign and AssignValues.
// Keys are applied in sorted order. Any other value, including nil and
// booleans, fails with common.ErrUnsupportedValue and leaves nothing applied;
// use "" to express an empty value.
func FromMap(values map[string]any, opts ...Option) (*Metadata, error) {
	m := New()
	if err := m.UpdateFromMap(values); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State reports what the store knows about key.
func (m *Metadata) State(key string) TagState {
	if _, ok := m.store[key]; ok {
		return TagPresent
	}
	if _, ok := m.deleted[key]; ok {
		return TagDeleted
	}
	return TagUntouched
}

// Get returns the display value of key, or "" if it has no values.
func (m *Metadata) Get(key string) string {
	return strings.Join(m.store[key], MultiValuedJoiner)
}

// Lookup returns the display value of key and whether the key has any values.
func (m *Metadata) Lookup(key string) (string, bool) {
	values := m.store[key]
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, MultiValuedJoiner), true
}

// GetAll returns a copy of the values of key, or an empty slice.
func (m *Metadata) GetAll(key string) []string {
	values := m.store[key]
	result := make([]string, len(values))
	copy(result, values)
	return result
}

// GetRaw returns a copy of the values of key. Unlike GetAll it fails with
// common.ErrKeyNotFound when the key is not present.
func (m *Metadata) GetRaw(key string) ([]string, error) {
	values, ok := m.store[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
	}
	return slices.Clone(values), nil
}

// Add appends value to key, keeping duplicates.
func (m *Metadata) Add(key, value string) {
	m.put(key, append(m.store[key], value))
}

// AddUnique appends value to key unless key already holds it.
func (m *Metadata) AddUnique(key, value string) {
	if slices.Contains(m.store[key], value) {
		return
	}
	m.Add(key, value)
}

// Set replaces the values of key verbatim. An empty slice leaves the key
// present with no values, which is different from deleting it.
func (m *Metadata) Set(key string, values []string) {
	if values == nil {
		values = []string{}
	}
	m.put(key, slices.Clone(values))
}

// Assign sets key to a single value. Assigning "" deletes the key if it is
// present and does nothing otherwise.
func (m *Metadata) Assign(key, value string) {
	if value == "" {
		m.implicitDelete(key)
		return
	}
	m.put(key, []string{value})
}

// AssignValues is Assign for a sequence: empty items are dropped and an
// empty result deletes a present key.
func (m *Metadata) AssignValues(key string, values []string) {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		m.implicitDelete(key)
		return
	}
	m.put(key, kept)
}

func (m *Metadata) implicitDelete(key string) {
	if m.State(key) == TagPresent {
		m.Delete(key)
	}
}

// Delete removes key and records it as deleted, whatever its prior state.
func (m *Metadata) Delete(key string) {
	m.drop(key)
	m.deleted[key] = struct{}{}
}

// Remove is an alias of Delete.
func (m *Metadata) Remove(key string) {
	m.Delete(key)
}

// Clear removes all values. Deletion history is kept; use ClearDeleted to
// forget it.
func (m *Metadata) Clear() {
	m.store = make(map[string][]string)
	m.keys = nil
}

// ClearDeleted forgets all deletions without touching values.
func (m *Metadata) ClearDeleted() {
	m.deleted = make(map[string]struct{})
}

// ApplyFunc replaces every value with fn(value).
func (m *Metadata) ApplyFunc(fn func(string) string) {
	for _, values := range m.store {
		for i, v := range values {
			values[i] = fn(v)
		}
	}
}

// Contains reports whether key is present, including explicitly empty keys.
func (m *Metadata) Contains(key string) bool {
	_, ok := m.store[key]
	return ok
}

// IsDeleted reports whether key is recorded as deleted.
func (m *Metadata) IsDeleted(key string) bool {
	_, ok := m.deleted[key]
	return ok
}

// DeletedTags returns the deleted keys in sorted order.
func (m *Metadata) DeletedTags() []string {
	keys := make([]string, 0, len(m.deleted))
	for k := range m.deleted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present keys.
func (m *Metadata) Len() int {
	return len(m.store)
}

// Keys returns the present keys in insertion order.
func (m *Metadata) Keys() []string {
	return slices.Clone(m.keys)
}

// RawItems returns one item per present key, in insertion order.
func (m *Metadata) RawItems() []RawItem {
	items := make([]RawItem, 0, len(m.keys))
	for _, k := range m.keys {
		items = append(items, RawItem{Key: k, Values: slices.Clone(m.store[k])})
	}
	return items
}

// Items returns one item per value, so a key with N values yields N items.
func (m *Metadata) Items() []Item {
	var items []Item
	for _, k := range m.keys {
		for _, v := range m.store[k] {
			items = append(items, Item{Key: k, Value: v})
		}
	}
	return items
}

// Length returns the track duration in milliseconds and whether it is known.
func (m *Metadata) Length() (int, bool) {
	return m.length, m.hasLength
}

// SetLength sets the track duration in milliseconds.
func (m *Metadata) SetLength(ms int) {
	m.length = ms
	m.hasLength = true
}

// ClearLength forgets the track duration.
func (m *Metadata) ClearLength() {
	m.length = 0
	m.hasLength = false
}

// Clone returns a deep copy of the store.
func (m *Metadata) Clone() *Metadata {
	c := New()
	for _, k := range m.keys {
		c.put(k, slices.Clone(m.store[k]))
	}
	for k := range m.deleted {
		c.deleted[k] = struct{}{}
	}
	c.length, c.hasLength = m.length, m.hasLength
	return c
}

// IsHidden reports whether key follows the hidden tag naming convention.
func IsHidden(key string) bool {
	return strings.HasPrefix(key, HiddenPrefix)
}

// put stores values under key, undeleting it and tracking insertion order.
func (m *Metadata) put(key string, values []string) {
	if _, ok := m.store[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.store[key] = values
	delete(m.deleted, key)
}

func (m *Metadata) drop(key string) {
	if _, ok := m.store[key]; !ok {
		return
	}
	delete(m.store, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}
